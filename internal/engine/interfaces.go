package engine

import (
	"context"

	"github.com/Veraticus/bomsort/internal/model"
)

// Reviewer lets a human correct machine labels. It returns the rows with
// CorrectClassification updated; rows it does not touch keep the label
// they came in with.
type Reviewer interface {
	Review(ctx context.Context, rows []model.ClassifiedRow) ([]model.ClassifiedRow, error)
}

// ReviewerFunc adapts a function to the Reviewer interface.
type ReviewerFunc func(ctx context.Context, rows []model.ClassifiedRow) ([]model.ClassifiedRow, error)

// Review calls f.
func (f ReviewerFunc) Review(ctx context.Context, rows []model.ClassifiedRow) ([]model.ClassifiedRow, error) {
	return f(ctx, rows)
}
