package events

import (
	"time"
)

// ChangeEvent describes one committed write.
type ChangeEvent struct {
	// Monotonic change counter value assigned to this write
	Id int
	// Tables touched by the write
	Tables []string
	// When the change was published
	Timestamp time.Time
}

// Touches reports whether the change affected any of the given tables. An
// empty table list matches every change.
func (e ChangeEvent) Touches(tables map[string]struct{}) bool {
	if len(tables) == 0 {
		return true
	}
	for _, t := range e.Tables {
		if _, ok := tables[t]; ok {
			return true
		}
	}
	return false
}
