package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/bomsort/internal/common"
	"github.com/Veraticus/bomsort/internal/model"
)

// Load returns the saved ruleset. A database that has never been saved
// to has no ruleset and fails with common.ErrConfig.
func (s *SQLiteStorage) Load(ctx context.Context) (*model.RuleSet, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var savedAt time.Time
	err := s.db.QueryRowContext(ctx, `SELECT saved_at FROM ruleset_state WHERE id = 1`).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no ruleset saved in %s", common.ErrConfig, s.dbPath)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read ruleset state: %w", common.ErrConfig, err)
	}

	return s.loadKeywords(ctx, s.db)
}

func (s *SQLiteStorage) loadKeywords(ctx context.Context, q queryable) (*model.RuleSet, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT category, keyword
		FROM rule_keywords
		ORDER BY category, position
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query keywords: %w", common.ErrConfig, err)
	}
	defer func() { _ = rows.Close() }()

	rs := &model.RuleSet{
		IgnoreIfContains: []string{},
		ActiveKeywords:   []string{},
		PassiveKeywords:  []string{},
	}
	for rows.Next() {
		var category, keyword string
		if err := rows.Scan(&category, &keyword); err != nil {
			return nil, fmt.Errorf("%w: failed to scan keyword: %w", common.ErrConfig, err)
		}
		rs.Append(model.Category(category), keyword)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read keywords: %w", common.ErrConfig, err)
	}

	return rs, nil
}

// Save replaces the stored ruleset in a single transaction.
func (s *SQLiteStorage) Save(ctx context.Context, rs *model.RuleSet) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRuleSet(rs); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", common.ErrIO, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.saveKeywordsTx(ctx, tx, rs); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIO, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit ruleset: %w", common.ErrIO, err)
	}
	return nil
}

func (s *SQLiteStorage) saveKeywordsTx(ctx context.Context, tx *sql.Tx, rs *model.RuleSet) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM rule_keywords`); err != nil {
		return fmt.Errorf("failed to clear keywords: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rule_keywords (category, keyword, position)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare keyword insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, category := range model.Categories() {
		for i, keyword := range rs.Keywords(category) {
			if _, err := stmt.ExecContext(ctx, string(category), keyword, i); err != nil {
				return fmt.Errorf("failed to save keyword %q: %w", keyword, err)
			}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ruleset_state (id, saved_at)
		VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET saved_at = excluded.saved_at
	`, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record save time: %w", err)
	}
	return nil
}
