// Package journal records the state transitions of all zones: every key creation, state change,
// timeout and DS update becomes one entry of the configured writer.
package journal

import (
	"strings"
	"time"
)

// LogEntry is one recorded event
type LogEntry struct {
	Time    time.Time
	Zone    string
	Event   string
	KeyType string
	KeyTag  uint16
	// FromState and ToState are the states of a transition, ToState is the current state otherwise
	FromState int
	ToState   int
	Retries   int
	Message   string
}

// Writer persists journal entries
type Writer interface {
	Write(entry *LogEntry)
	CleanUp()
}

func tagsToString(tags []uint16) string {
	s := make([]string, 0, len(tags))

	for _, t := range tags {
		s = append(s, formatTag(t))
	}

	return strings.Join(s, " ")
}
