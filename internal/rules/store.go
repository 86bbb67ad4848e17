// Package rules loads and saves the keyword ruleset.
package rules

import (
	"context"

	"github.com/Veraticus/bomsort/internal/model"
)

// Store persists a RuleSet. Save replaces the stored ruleset as a whole;
// callers load, mutate and save within one session.
type Store interface {
	// Load returns the stored ruleset. It fails with common.ErrConfig
	// when the storage is absent or malformed.
	Load(ctx context.Context) (*model.RuleSet, error)
	// Save overwrites the stored ruleset. It fails with common.ErrIO
	// when the write does not complete.
	Save(ctx context.Context, rs *model.RuleSet) error
}

// Default returns the starter ruleset written by 'bomsort rules init'.
func Default() *model.RuleSet {
	return &model.RuleSet{
		IgnoreIfContains: []string{
			"do not use",
			"spare",
			"label",
		},
		ActiveKeywords: []string{
			"amplifier",
			"bda",
			"repeater",
			"remote unit",
			"head end",
			"donor",
		},
		PassiveKeywords: []string{
			"antenna",
			"splitter",
			"coupler",
			"cable",
			"connector",
			"jumper",
			"tapper",
			"attenuator",
		},
	}
}
