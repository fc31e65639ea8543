package tenderid

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tendertrack/tender-agent/internal/common"
)

// CounterStore hands out the next counter value for a calendar year.
// Next must be write-ahead: the incremented value is durably persisted
// before it is returned, so a crash after Next never re-issues a value.
// Implementations serialize concurrent callers, in-process or not.
type CounterStore interface {
	Next(ctx context.Context, year int) (int, error)
}

// FileCounterStore keeps one counter file per year and serializes access
// across processes with an exclusive lock file. Persistence is atomic:
// temp file then rename.
type FileCounterStore struct {
	dir string
}

func NewFileCounterStore(dir string) (*FileCounterStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create counter dir: %w", err)
	}
	return &FileCounterStore{dir: dir}, nil
}

func (s *FileCounterStore) Next(ctx context.Context, year int) (int, error) {
	unlock, err := s.lock(ctx, year)
	if err != nil {
		return 0, err
	}
	defer unlock()

	cur, err := s.read(year)
	if err != nil {
		return 0, err
	}
	next := cur + 1
	if err := s.write(year, next); err != nil {
		return 0, fmt.Errorf("%w: persist counter: %v", common.ErrCounterStore, err)
	}
	return next, nil
}

func (s *FileCounterStore) counterPath(year int) string {
	return filepath.Join(s.dir, fmt.Sprintf("tender_counter_%d.txt", year))
}

func (s *FileCounterStore) read(year int) (int, error) {
	b, err := os.ReadFile(s.counterPath(year))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", common.ErrCounterStore, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: corrupt counter file %s", common.ErrCounterStore, s.counterPath(year))
	}
	return n, nil
}

func (s *FileCounterStore) write(year, value int) error {
	tmp, err := os.CreateTemp(s.dir, ".counter-*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(strconv.Itoa(value)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.counterPath(year))
}

// lock acquires the per-year lock file, spinning until the holder
// releases it or ctx expires. O_EXCL creation is atomic on every
// filesystem we care about.
func (s *FileCounterStore) lock(ctx context.Context, year int) (func(), error) {
	path := filepath.Join(s.dir, fmt.Sprintf("tender_counter_%d.lock", year))
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_ = f.Close()
			return func() { _ = os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("%w: acquire lock: %v", common.ErrCounterStore, err)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", common.ErrCounterStore, ctx.Err())
		case <-time.After(10 * time.Millisecond):
		}
	}
}
