// Package instanceid identifies the current invocation. The id is attached to log
// entries and journal records so all changes made by one run can be correlated.
package instanceid

import (
	"github.com/google/uuid"
)

// nolint:gochecknoglobals
var instanceID uuid.UUID

// nolint:gochecknoinits
func init() {
	instanceID = uuid.New()
}

// String returns the id of this invocation
func String() string {
	return instanceID.String()
}

// Short returns the first block of the id, sufficient to tell runs apart in mails
func Short() string {
	return instanceID.String()[:8]
}
