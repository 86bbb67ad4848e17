// Package engine runs the classify, review and learn cycle over a BOM.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/bomsort/internal/changelog"
	"github.com/Veraticus/bomsort/internal/common"
	"github.com/Veraticus/bomsort/internal/model"
	"github.com/Veraticus/bomsort/internal/pattern"
	"github.com/Veraticus/bomsort/internal/rules"
)

// ErrNothingToRetry is returned by RetrySave when every update has
// already been persisted.
var ErrNothingToRetry = errors.New("no unsaved rule update")

// Engine holds one session's ruleset. The ruleset is loaded from the
// store on first use and written back by ApplyCorrections.
type Engine struct {
	store    rules.Store
	log      changelog.Log
	now      func() time.Time
	progress func()
	rules    *model.RuleSet
	pending  *pendingUpdate
}

// Config holds optional engine settings.
type Config struct {
	// Now stamps change records. Defaults to time.Now.
	Now func() time.Time
	// Progress is called once per classified row.
	Progress func()
}

// Result describes a completed rule update.
type Result struct {
	Rules    *model.RuleSet
	Record   model.ChangeRecord
	Outcomes []Outcome
}

// Added returns the number of keywords added.
func (r Result) Added() int {
	return len(r.Record.Changes)
}

type pendingUpdate struct {
	result Result
	saved  bool
	logged bool
}

// New creates an engine over store and log.
func New(store rules.Store, log changelog.Log) *Engine {
	return NewWithConfig(store, log, Config{})
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(store rules.Store, log changelog.Log, config Config) *Engine {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Engine{
		store:    store,
		log:      log,
		now:      config.Now,
		progress: config.Progress,
	}
}

// Rules returns the session ruleset, loading it on first use.
func (e *Engine) Rules(ctx context.Context) (*model.RuleSet, error) {
	if e.rules != nil {
		return e.rules, nil
	}

	rs, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	slog.Info("Loaded rules",
		"ignore", len(rs.IgnoreIfContains),
		"active", len(rs.ActiveKeywords),
		"passive", len(rs.PassiveKeywords))

	e.rules = rs
	return rs, nil
}

// Classify labels rows with the session ruleset.
func (e *Engine) Classify(ctx context.Context, rows []model.Row) ([]model.ClassifiedRow, error) {
	rs, err := e.Rules(ctx)
	if err != nil {
		return nil, err
	}

	matcher := pattern.NewMatcher(rs)
	out := make([]model.ClassifiedRow, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		match := matcher.Explain(row)
		out[i] = model.NewClassifiedRow(row, match.Label, match.Keyword)
		if e.progress != nil {
			e.progress()
		}
	}

	summary := model.Summarize(out)
	slog.Info("Classification complete",
		"rows", len(out),
		"active", summary[model.LabelActive],
		"passive", summary[model.LabelPassive],
		"ignore", summary[model.LabelIgnore],
		"unclassified", summary[model.LabelUnclassified])

	return out, nil
}

// ApplyCorrections learns from corrected rows, saves the updated
// ruleset and appends the change record when keywords were added. The
// ruleset is saved even when nothing was learned, because learning also
// deduplicates the keyword lists.
//
// When saving or logging fails the updated ruleset stays in the session
// and RetrySave writes it without learning again.
func (e *Engine) ApplyCorrections(ctx context.Context, rows []model.ClassifiedRow) (Result, error) {
	rs, err := e.Rules(ctx)
	if err != nil {
		return Result{}, err
	}

	updated, record, outcomes := LearnAt(rows, rs, e.now())
	for _, o := range outcomes {
		logOutcome(o)
	}

	e.rules = updated
	e.pending = &pendingUpdate{
		result: Result{Rules: updated, Record: record, Outcomes: outcomes},
	}

	return e.persist(ctx)
}

// RetrySave re-attempts the writes of the last failed update.
func (e *Engine) RetrySave(ctx context.Context) (Result, error) {
	if e.pending == nil {
		return Result{}, ErrNothingToRetry
	}
	return e.persist(ctx)
}

// Pending reports whether an update is waiting to be saved.
func (e *Engine) Pending() bool {
	return e.pending != nil
}

// RulesSaved reports whether the pending update's ruleset already reached
// the store, leaving only its change record unwritten.
func (e *Engine) RulesSaved() bool {
	return e.pending != nil && e.pending.saved
}

// Run performs a full cycle: classify rows, let reviewer correct them,
// then apply the corrections.
func (e *Engine) Run(ctx context.Context, rows []model.Row, reviewer Reviewer) ([]model.ClassifiedRow, Result, error) {
	classified, err := e.Classify(ctx, rows)
	if err != nil {
		return nil, Result{}, err
	}

	reviewed, err := reviewer.Review(ctx, classified)
	if err != nil {
		return classified, Result{}, fmt.Errorf("review failed: %w", err)
	}

	result, err := e.ApplyCorrections(ctx, reviewed)
	if err != nil {
		return reviewed, result, err
	}
	return reviewed, result, nil
}

func (e *Engine) persist(ctx context.Context) (Result, error) {
	p := e.pending

	if !p.saved {
		if err := e.store.Save(ctx, p.result.Rules); err != nil {
			return p.result, fmt.Errorf("failed to save rules: %w", err)
		}
		p.saved = true
	}

	if !p.logged {
		if !p.result.Record.Empty() {
			if err := e.log.Append(ctx, p.result.Record); err != nil {
				return p.result, fmt.Errorf("%w: %w", common.ErrChangeLog, err)
			}
		}
		p.logged = true
	}

	e.pending = nil
	slog.Info("Rules updated", "added", p.result.Added())
	return p.result, nil
}

func logOutcome(o Outcome) {
	switch o.Kind {
	case OutcomeAdded:
		slog.Info("Learned keyword", "keyword", o.Keyword, "category", o.Category, "row", o.Index)
	case OutcomeKnown:
		slog.Debug("Keyword already known", "keyword", o.Keyword, "category", o.Category, "row", o.Index)
	case OutcomeNoKeyword:
		slog.Debug("Correction has no text to learn from", "label", o.Label, "row", o.Index)
	case OutcomeNotLearnable:
		slog.Debug("Correction label does not produce rules", "label", o.Label, "row", o.Index)
	}
}
