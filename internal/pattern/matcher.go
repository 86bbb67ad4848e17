package pattern

import (
	"strings"

	"github.com/Veraticus/bomsort/internal/model"
	"github.com/Veraticus/bomsort/internal/normalize"
)

// Matcher classifies rows against one ruleset.
type Matcher struct {
	rules *model.RuleSet
}

// NewMatcher creates a matcher for rs. The matcher reads rs on every
// call, so it must not be mutated while rows are being classified.
func NewMatcher(rs *model.RuleSet) *Matcher {
	if rs == nil {
		rs = &model.RuleSet{}
	}
	return &Matcher{rules: rs}
}

// Classify returns the label for row.
func (m *Matcher) Classify(row model.Row) model.Label {
	return m.Explain(row).Label
}

// Explain classifies row and reports which keyword decided it.
func (m *Matcher) Explain(row model.Row) Match {
	return ExplainText(normalize.Combined(row), m.rules)
}

// ClassifyRows labels every row. Corrections start equal to the machine
// label.
func (m *Matcher) ClassifyRows(rows []model.Row) []model.ClassifiedRow {
	out := make([]model.ClassifiedRow, len(rows))
	for i, row := range rows {
		match := m.Explain(row)
		out[i] = model.NewClassifiedRow(row, match.Label, match.Keyword)
	}
	return out
}

// Classify labels row with rs. Ignore rules win over active rules,
// which win over passive rules.
func Classify(row model.Row, rs *model.RuleSet) model.Label {
	return NewMatcher(rs).Classify(row)
}

// ExplainText matches already normalized text. A keyword matches when
// it occurs anywhere in text, so short keywords can match inside longer
// words.
func ExplainText(text string, rs *model.RuleSet) Match {
	if rs != nil {
		for _, category := range model.Categories() {
			if kw, ok := firstContained(text, rs.Keywords(category)); ok {
				return Match{
					Label:    category.Label(),
					Category: category,
					Keyword:  kw,
				}
			}
		}
	}
	return Match{Label: model.LabelUnclassified}
}

func firstContained(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}
