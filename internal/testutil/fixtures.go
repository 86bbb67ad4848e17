package testutil

import (
	"github.com/Veraticus/bomsort/internal/model"
	"github.com/Veraticus/bomsort/internal/rules"
)

// RuleSetBuilder builds rulesets for tests.
type RuleSetBuilder struct {
	rs *model.RuleSet
}

// NewRuleSetBuilder starts from an empty ruleset.
func NewRuleSetBuilder() *RuleSetBuilder {
	return &RuleSetBuilder{rs: &model.RuleSet{
		IgnoreIfContains: []string{},
		ActiveKeywords:   []string{},
		PassiveKeywords:  []string{},
	}}
}

// WithDefaults adds the starter keywords.
func (b *RuleSetBuilder) WithDefaults() *RuleSetBuilder {
	def := rules.Default()
	for _, c := range model.Categories() {
		for _, kw := range def.Keywords(c) {
			b.rs.Append(c, kw)
		}
	}
	return b
}

// Ignore adds ignore keywords.
func (b *RuleSetBuilder) Ignore(keywords ...string) *RuleSetBuilder {
	return b.add(model.CategoryIgnore, keywords)
}

// Active adds active keywords.
func (b *RuleSetBuilder) Active(keywords ...string) *RuleSetBuilder {
	return b.add(model.CategoryActive, keywords)
}

// Passive adds passive keywords.
func (b *RuleSetBuilder) Passive(keywords ...string) *RuleSetBuilder {
	return b.add(model.CategoryPassive, keywords)
}

// Build returns a copy of the ruleset built so far.
func (b *RuleSetBuilder) Build() *model.RuleSet {
	return b.rs.Clone()
}

func (b *RuleSetBuilder) add(c model.Category, keywords []string) *RuleSetBuilder {
	for _, kw := range keywords {
		b.rs.Append(c, kw)
	}
	return b
}

// Row returns a row with the three classified columns.
func Row(typ, description, modelName string) model.Row {
	return model.NewRow(
		[]string{model.ColumnType, model.ColumnDescription, model.ColumnModel},
		[]string{typ, description, modelName},
	)
}

// Corrected returns a classified row whose correction differs from the
// machine label.
func Corrected(row model.Row, machine, correct model.Label) model.ClassifiedRow {
	return model.ClassifiedRow{
		Row:                   row,
		Classification:        machine,
		CorrectClassification: correct,
	}
}
