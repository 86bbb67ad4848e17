// Package pattern classifies BOM rows against the keyword ruleset.
package pattern

import "github.com/Veraticus/bomsort/internal/model"

// Classifier assigns a label to a row.
type Classifier interface {
	// Classify returns the label for row. It has no side effects.
	Classify(row model.Row) model.Label
}

// Match explains a classification: the label, the rule list that
// produced it and the keyword that was found. Category and Keyword are
// empty for Unclassified rows.
type Match struct {
	Label    model.Label
	Category model.Category
	Keyword  string
}
