package rules

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/bomsort/internal/common"
	"github.com/Veraticus/bomsort/internal/model"
)

// MemoryStore keeps the ruleset in memory. It is used by tests and by
// dry runs that must not touch the rules file.
type MemoryStore struct {
	rules     *model.RuleSet
	saveErr   error
	saveCount int
	mu        sync.Mutex
}

// NewMemoryStore returns a store holding a copy of rs. A nil rs makes
// Load fail as if the rules file were missing.
func NewMemoryStore(rs *model.RuleSet) *MemoryStore {
	s := &MemoryStore{}
	if rs != nil {
		s.rules = rs.Clone()
	}
	return s
}

// Load returns a copy of the stored ruleset.
func (s *MemoryStore) Load(ctx context.Context) (*model.RuleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rules == nil {
		return nil, fmt.Errorf("%w: no ruleset stored", common.ErrConfig)
	}
	return s.rules.Clone(), nil
}

// Save stores a copy of rs.
func (s *MemoryStore) Save(ctx context.Context, rs *model.RuleSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return fmt.Errorf("%w: %w", common.ErrIO, s.saveErr)
	}
	s.rules = rs.Clone()
	s.saveCount++
	return nil
}

// FailSaves makes every later Save return err. Pass nil to recover.
func (s *MemoryStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// SaveCount returns how many saves succeeded.
func (s *MemoryStore) SaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCount
}
