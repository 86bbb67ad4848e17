package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleSet_Clone(t *testing.T) {
	rs := &RuleSet{
		IgnoreIfContains: []string{"do not use"},
		ActiveKeywords:   []string{"amplifier"},
	}

	clone := rs.Clone()
	clone.Append(CategoryActive, "repeater")
	clone.IgnoreIfContains[0] = "changed"

	assert.Equal(t, []string{"amplifier"}, rs.ActiveKeywords)
	assert.Equal(t, []string{"do not use"}, rs.IgnoreIfContains)
	assert.NotNil(t, clone.PassiveKeywords)
}

func TestRuleSet_CloneNil(t *testing.T) {
	var rs *RuleSet
	clone := rs.Clone()
	require.NotNil(t, clone)
	assert.Equal(t, 0, clone.Size())
}

func TestRuleSet_HasAndAppend(t *testing.T) {
	rs := &RuleSet{}
	assert.False(t, rs.Has(CategoryPassive, "splitter"))

	rs.Append(CategoryPassive, "splitter")
	assert.True(t, rs.Has(CategoryPassive, "splitter"))
	assert.False(t, rs.Has(CategoryActive, "splitter"))
	assert.Equal(t, 1, rs.Size())
}

func TestRuleSet_Dedup(t *testing.T) {
	rs := &RuleSet{ActiveKeywords: []string{"amp", "radio", "amp", "amp", "bda"}}
	rs.Dedup(CategoryActive)
	assert.Equal(t, []string{"amp", "radio", "bda"}, rs.ActiveKeywords)

	rs.Dedup(CategoryPassive)
	assert.Nil(t, rs.PassiveKeywords)
}

func TestRuleSet_SetKeywordsUnknown(t *testing.T) {
	rs := &RuleSet{}
	assert.Error(t, rs.SetKeywords(Category("bogus"), []string{"x"}))
}

func TestCategory_Label(t *testing.T) {
	assert.Equal(t, LabelIgnore, CategoryIgnore.Label())
	assert.Equal(t, LabelActive, CategoryActive.Label())
	assert.Equal(t, LabelPassive, CategoryPassive.Label())
	assert.Equal(t, LabelUnclassified, Category("other").Label())
}

func TestAddedKeyword(t *testing.T) {
	assert.Equal(t, "Added 'splitter' to passive_keywords", AddedKeyword("splitter", CategoryPassive))
}

func TestParseCategory(t *testing.T) {
	for input, want := range map[string]Category{
		"active":             CategoryActive,
		" Passive ":          CategoryPassive,
		"ignore":             CategoryIgnore,
		"ignore_if_contains": CategoryIgnore,
		"active_keywords":    CategoryActive,
	} {
		got, err := ParseCategory(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseCategory("unclassified")
	assert.Error(t, err)
}
