package changelog

import (
	"context"
	"sync"

	"github.com/Veraticus/bomsort/internal/model"
)

// MemoryLog keeps records in memory.
type MemoryLog struct {
	appendErr error
	records   []model.ChangeRecord
	mu        sync.Mutex
}

// NewMemoryLog returns an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append stores record unless it is empty.
func (l *MemoryLog) Append(ctx context.Context, record model.ChangeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.appendErr != nil {
		return l.appendErr
	}
	if record.Empty() {
		return nil
	}
	record.Changes = append([]string(nil), record.Changes...)
	l.records = append(l.records, record)
	return nil
}

// Entries returns a copy of the stored records.
func (l *MemoryLog) Entries(ctx context.Context) ([]model.ChangeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.ChangeRecord(nil), l.records...), nil
}

// FailAppends makes every later Append return err.
func (l *MemoryLog) FailAppends(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appendErr = err
}
