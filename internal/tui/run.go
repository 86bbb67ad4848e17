package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/bomsort/internal/model"
	"github.com/Veraticus/bomsort/internal/tui/themes"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrReviewCanceled is returned when the user leaves the review without
// saving.
var ErrReviewCanceled = errors.New("review canceled")

// Reviewer runs the review screen. It implements engine.Reviewer.
type Reviewer struct {
	input     io.Reader
	output    io.Writer
	theme     themes.Theme
	reviewAll bool
}

// Option configures a Reviewer.
type Option func(*Reviewer)

// WithIO replaces the terminal streams. Used in tests.
func WithIO(input io.Reader, output io.Writer) Option {
	return func(r *Reviewer) {
		r.input = input
		r.output = output
	}
}

// WithTheme sets the color theme.
func WithTheme(theme themes.Theme) Option {
	return func(r *Reviewer) {
		r.theme = theme
	}
}

// WithReviewAll starts the table unfiltered instead of showing only
// Unclassified rows.
func WithReviewAll(all bool) Option {
	return func(r *Reviewer) {
		r.reviewAll = all
	}
}

// NewReviewer creates a TUI reviewer.
func NewReviewer(opts ...Option) *Reviewer {
	r := &Reviewer{theme: themes.Default}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Review shows rows in a full-screen table and returns them with the
// user's corrections. Leaving without saving returns ErrReviewCanceled.
func (r *Reviewer) Review(ctx context.Context, rows []model.ClassifiedRow) ([]model.ClassifiedRow, error) {
	onlyUnclassified := !r.reviewAll && hasUnclassified(rows)
	m := NewModel(rows, onlyUnclassified, r.theme)

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if r.input != nil || r.output != nil {
		programOpts = append(programOpts, tea.WithInput(r.input), tea.WithOutput(r.output))
	} else {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	final, err := tea.NewProgram(m, programOpts...).Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run TUI: %w", err)
	}

	result, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("unexpected TUI model %T", final)
	}

	slog.Info("Review finished", "result", result.summary())
	if !result.Saved() {
		return nil, ErrReviewCanceled
	}
	return result.Rows(), nil
}

func hasUnclassified(rows []model.ClassifiedRow) bool {
	for _, r := range rows {
		if r.Classification == model.LabelUnclassified {
			return true
		}
	}
	return false
}
