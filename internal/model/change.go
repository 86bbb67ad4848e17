package model

import (
	"fmt"
	"time"
)

// ChangeRecord is one timestamped batch of rule additions.
type ChangeRecord struct {
	Timestamp time.Time
	Changes   []string
}

// Empty reports whether the record carries no changes.
func (r ChangeRecord) Empty() bool {
	return len(r.Changes) == 0
}

// AddedKeyword formats the change line for a keyword added to c.
func AddedKeyword(keyword string, c Category) string {
	return fmt.Sprintf("Added '%s' to %s", keyword, c)
}
