package engine

import (
	"time"

	"github.com/Veraticus/bomsort/internal/model"
	"github.com/Veraticus/bomsort/internal/normalize"
)

// OutcomeKind says what the learner did with one corrected row.
type OutcomeKind string

// Learner outcomes.
const (
	// OutcomeAdded means the candidate keyword was appended to a list.
	OutcomeAdded OutcomeKind = "added"
	// OutcomeKnown means the keyword was already in the target list.
	OutcomeKnown OutcomeKind = "known"
	// OutcomeNoKeyword means the row text was blank.
	OutcomeNoKeyword OutcomeKind = "no_keyword"
	// OutcomeNotLearnable means the correction was Ignore or
	// Unclassified, which never produce rules.
	OutcomeNotLearnable OutcomeKind = "not_learnable"
)

// Outcome records the learner's decision for one corrected row.
type Outcome struct {
	Kind     OutcomeKind
	Keyword  string
	Category model.Category
	Label    model.Label
	Index    int
}

// Learn turns corrections into new keywords. It is LearnAt stamped
// with the current time.
func Learn(rows []model.ClassifiedRow, rs *model.RuleSet) (*model.RuleSet, model.ChangeRecord) {
	updated, record, _ := LearnAt(rows, rs, time.Now())
	return updated, record
}

// LearnAt returns an updated copy of rs and the change record for every
// keyword it added. rs itself is not modified.
//
// For each row whose correction differs from the machine label, the
// first token of the row's normalized text becomes the candidate
// keyword. Active and Passive corrections append the candidate to the
// matching list unless it is already there. Ignore and Unclassified
// corrections are not learned. After all rows, the active and passive
// lists are deduplicated.
//
// Only the first token is used, so a correction on "rf amplifier unit"
// teaches "rf" rather than the more specific "amplifier".
func LearnAt(rows []model.ClassifiedRow, rs *model.RuleSet, at time.Time) (*model.RuleSet, model.ChangeRecord, []Outcome) {
	updated := rs.Clone()
	record := model.ChangeRecord{Timestamp: at}
	var outcomes []Outcome

	for i, row := range rows {
		if !row.Corrected() {
			continue
		}

		keyword := normalize.FirstToken(normalize.Combined(row.Row))
		outcome := Outcome{Index: i, Keyword: keyword, Label: row.CorrectClassification}

		category, learnable := learnableCategory(row.CorrectClassification)
		switch {
		case !learnable:
			outcome.Kind = OutcomeNotLearnable
		case keyword == "":
			outcome.Kind = OutcomeNoKeyword
		case updated.Has(category, keyword):
			outcome.Kind = OutcomeKnown
			outcome.Category = category
		default:
			updated.Append(category, keyword)
			record.Changes = append(record.Changes, model.AddedKeyword(keyword, category))
			outcome.Kind = OutcomeAdded
			outcome.Category = category
		}
		outcomes = append(outcomes, outcome)
	}

	updated.Dedup(model.CategoryActive)
	updated.Dedup(model.CategoryPassive)

	return updated, record, outcomes
}

func learnableCategory(label model.Label) (model.Category, bool) {
	switch label {
	case model.LabelActive:
		return model.CategoryActive, true
	case model.LabelPassive:
		return model.CategoryPassive, true
	}
	return "", false
}
