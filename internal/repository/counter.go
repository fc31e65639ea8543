package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/tendertrack/tender-agent/internal/common"
)

// SQLCounterStore issues per-year counter values from the database. The
// increment is a single atomic upsert, so the value is durable before it
// is returned and concurrent callers never see duplicates.
type SQLCounterStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLCounterStore(db *sql.DB, logger *slog.Logger) *SQLCounterStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLCounterStore{db: db, logger: logger}
}

func (s *SQLCounterStore) Next(ctx context.Context, year int) (int, error) {
	const q = `
INSERT INTO tender_counters (year, value) VALUES ($1, 1)
ON CONFLICT (year) DO UPDATE SET value = tender_counters.value + 1
RETURNING value`

	var value int
	if err := s.db.QueryRowContext(ctx, q, year).Scan(&value); err != nil {
		s.logger.Error("counter increment failed", "year", year, "error", err)
		return 0, fmt.Errorf("%w: %v", common.ErrCounterStore, err)
	}
	return value, nil
}
