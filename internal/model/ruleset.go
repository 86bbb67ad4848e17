package model

import (
	"fmt"
	"strings"
)

// Category names a keyword list in a RuleSet. The values double as the
// keys of the durable rules file.
type Category string

// Rule categories.
const (
	CategoryIgnore  Category = "ignore_if_contains"
	CategoryActive  Category = "active_keywords"
	CategoryPassive Category = "passive_keywords"
)

// Categories returns every category in matching precedence order.
func Categories() []Category {
	return []Category{CategoryIgnore, CategoryActive, CategoryPassive}
}

// Label returns the classification a match in c produces.
func (c Category) Label() Label {
	switch c {
	case CategoryIgnore:
		return LabelIgnore
	case CategoryActive:
		return LabelActive
	case CategoryPassive:
		return LabelPassive
	}
	return LabelUnclassified
}

// ParseCategory accepts a category key or its short name (ignore,
// active, passive).
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore", string(CategoryIgnore):
		return CategoryIgnore, nil
	case "active", string(CategoryActive):
		return CategoryActive, nil
	case "passive", string(CategoryPassive):
		return CategoryPassive, nil
	}
	return "", fmt.Errorf("unknown rule category %q", s)
}

// RuleSet holds the three keyword lists.
type RuleSet struct {
	IgnoreIfContains []string `yaml:"ignore_if_contains" json:"ignore_if_contains"`
	ActiveKeywords   []string `yaml:"active_keywords" json:"active_keywords"`
	PassiveKeywords  []string `yaml:"passive_keywords" json:"passive_keywords"`
}

// Clone returns a deep copy of rs.
func (rs *RuleSet) Clone() *RuleSet {
	if rs == nil {
		return &RuleSet{}
	}
	return &RuleSet{
		IgnoreIfContains: cloneList(rs.IgnoreIfContains),
		ActiveKeywords:   cloneList(rs.ActiveKeywords),
		PassiveKeywords:  cloneList(rs.PassiveKeywords),
	}
}

// Keywords returns the list stored under c.
func (rs *RuleSet) Keywords(c Category) []string {
	switch c {
	case CategoryIgnore:
		return rs.IgnoreIfContains
	case CategoryActive:
		return rs.ActiveKeywords
	case CategoryPassive:
		return rs.PassiveKeywords
	}
	return nil
}

// SetKeywords replaces the list stored under c.
func (rs *RuleSet) SetKeywords(c Category, keywords []string) error {
	switch c {
	case CategoryIgnore:
		rs.IgnoreIfContains = keywords
	case CategoryActive:
		rs.ActiveKeywords = keywords
	case CategoryPassive:
		rs.PassiveKeywords = keywords
	default:
		return fmt.Errorf("unknown rule category %q", c)
	}
	return nil
}

// Has reports whether keyword is already listed under c.
func (rs *RuleSet) Has(c Category, keyword string) bool {
	for _, kw := range rs.Keywords(c) {
		if kw == keyword {
			return true
		}
	}
	return false
}

// Append adds keyword to the end of c without checking for duplicates.
func (rs *RuleSet) Append(c Category, keyword string) {
	_ = rs.SetKeywords(c, append(rs.Keywords(c), keyword))
}

// Dedup removes repeated keywords from c, keeping the first occurrence.
func (rs *RuleSet) Dedup(c Category) {
	list := rs.Keywords(c)
	if list == nil {
		return
	}

	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, kw := range list {
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	_ = rs.SetKeywords(c, out)
}

// Size returns the total number of keywords across all categories.
func (rs *RuleSet) Size() int {
	return len(rs.IgnoreIfContains) + len(rs.ActiveKeywords) + len(rs.PassiveKeywords)
}

func cloneList(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append(make([]string, 0, len(in)), in...)
}
