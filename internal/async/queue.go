package async

import (
	"context"
	"time"
)

// Job is the smallest useful unit. Extend as needed later (retry, trace, priority).
type Job struct {
	Path         string
	SourceRef    string
	EmailSubject string
	EmailBody    string
	SubmittedAt  time.Time
	TraceID      string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
