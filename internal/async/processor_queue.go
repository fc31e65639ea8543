package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tendertrack/tender-agent/constants"
	"github.com/tendertrack/tender-agent/internal/pipeline"
)

// ProcessorQueue fans jobs out to a fixed worker pool, each worker
// running the full pipeline on one document at a time. Each job moves
// through QUEUED -> RUNNING -> FIELDS_OK | FAILED, keyed by source ref.
type ProcessorQueue struct {
	proc    *pipeline.Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu       sync.Mutex
	closed   bool
	statuses map[string]constants.JobStatus
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc *pipeline.Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:     proc,
		logger:   logger,
		workers:  4,
		timeout:  3 * time.Minute,
		ch:       make(chan Job, 256),
		statuses: map[string]constants.JobStatus{},
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.setStatus(job, constants.JobStatusRunning)
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					rec, err := q.proc.Process(ctx, pipeline.Source{
						Path:         job.Path,
						SourceRef:    job.SourceRef,
						EmailSubject: job.EmailSubject,
						EmailBody:    job.EmailBody,
					})
					cancel()

					if err != nil {
						q.setStatus(job, constants.JobStatusFailed)
						q.logger.Error("processing failed", "worker_id", workerID, "path", job.Path, "error", err)
					} else {
						q.setStatus(job, constants.JobStatusFieldsOK)
						q.logger.Info("processed document", "worker_id", workerID, "path", job.Path, "tender_id", rec.Identifier.Value)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return nil
	}
	q.statuses[statusKey(job)] = constants.JobStatusQueued
	select {
	case q.ch <- job:
		q.logger.Info("queued document for processing", "path", job.Path)
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

// Status reports the lifecycle state of a job by its source ref (path
// when no ref was given), or false if the job was never enqueued.
func (q *ProcessorQueue) Status(sourceRef string) (constants.JobStatus, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.statuses[sourceRef]
	return s, ok
}

func (q *ProcessorQueue) setStatus(job Job, s constants.JobStatus) {
	q.mu.Lock()
	q.statuses[statusKey(job)] = s
	q.mu.Unlock()
}

func statusKey(job Job) string {
	if job.SourceRef != "" {
		return job.SourceRef
	}
	return job.Path
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
