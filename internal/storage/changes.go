package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/bomsort/internal/common"
	"github.com/Veraticus/bomsort/internal/model"
)

// Append records one batch of rule changes. Empty records are skipped.
func (s *SQLiteStorage) Append(ctx context.Context, record model.ChangeRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if record.Empty() {
		return nil
	}
	if err := validateChangeRecord(record); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", common.ErrIO, err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO rule_change_batches (recorded_at) VALUES (?)
	`, record.Timestamp)
	if err != nil {
		return fmt.Errorf("%w: failed to record change batch: %w", common.ErrIO, err)
	}
	batchID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: failed to get batch id: %w", common.ErrIO, err)
	}

	for i, change := range record.Changes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rule_changes (batch_id, position, change) VALUES (?, ?, ?)
		`, batchID, i, change)
		if err != nil {
			return fmt.Errorf("%w: failed to record change: %w", common.ErrIO, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit change batch: %w", common.ErrIO, err)
	}
	return nil
}

// Entries returns every recorded batch, oldest first.
func (s *SQLiteStorage) Entries(ctx context.Context) ([]model.ChangeRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.recorded_at, c.change
		FROM rule_change_batches b
		JOIN rule_changes c ON c.batch_id = b.id
		ORDER BY b.id, c.position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query change log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		records []model.ChangeRecord
		lastID  int64 = -1
	)
	for rows.Next() {
		var (
			id         int64
			recordedAt time.Time
			change     string
		)
		if err := rows.Scan(&id, &recordedAt, &change); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		if id != lastID {
			records = append(records, model.ChangeRecord{Timestamp: recordedAt})
			lastID = id
		}
		last := &records[len(records)-1]
		last.Changes = append(last.Changes, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read change log: %w", err)
	}

	return records, nil
}
