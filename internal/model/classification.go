package model

import (
	"fmt"
	"strings"
)

// Label is the category assigned to a BOM row.
type Label string

// Classification labels.
const (
	LabelIgnore       Label = "Ignore"
	LabelActive       Label = "Active"
	LabelPassive      Label = "Passive"
	LabelUnclassified Label = "Unclassified"
)

// Labels returns every label in classifier precedence order.
func Labels() []Label {
	return []Label{LabelIgnore, LabelActive, LabelPassive, LabelUnclassified}
}

// Valid reports whether l is one of the four known labels.
func (l Label) Valid() bool {
	switch l {
	case LabelIgnore, LabelActive, LabelPassive, LabelUnclassified:
		return true
	}
	return false
}

func (l Label) String() string {
	return string(l)
}

// ParseLabel parses a label name case-insensitively. Single-letter
// shorthands (i, a, p, u) are accepted for interactive input.
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore", "i":
		return LabelIgnore, nil
	case "active", "a":
		return LabelActive, nil
	case "passive", "p":
		return LabelPassive, nil
	case "unclassified", "u":
		return LabelUnclassified, nil
	}
	return "", fmt.Errorf("unknown classification %q", s)
}

// ClassifiedRow is a row with the machine label and the human correction.
type ClassifiedRow struct {
	Row                   Row
	Classification        Label
	CorrectClassification Label
	MatchedKeyword        string
}

// NewClassifiedRow returns a ClassifiedRow whose correction starts equal
// to the machine label.
func NewClassifiedRow(row Row, label Label, keyword string) ClassifiedRow {
	return ClassifiedRow{
		Row:                   row,
		Classification:        label,
		CorrectClassification: label,
		MatchedKeyword:        keyword,
	}
}

// Corrected reports whether a human changed the machine label.
func (c ClassifiedRow) Corrected() bool {
	return c.CorrectClassification != c.Classification
}

// Summary counts classified rows per label.
type Summary map[Label]int

// Summarize counts rows by machine label.
func Summarize(rows []ClassifiedRow) Summary {
	s := make(Summary, len(Labels()))
	for _, r := range rows {
		s[r.Classification]++
	}
	return s
}
