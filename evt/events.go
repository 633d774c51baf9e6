package evt

import (
	"github.com/asaskevich/EventBus"
)

const (
	// KeyCreated fires after new key material was generated. Parameter: zone name, key type, key tag
	KeyCreated = "key:created"

	// KeyDeleted fires after key material was removed. Parameter: zone name, key tag
	KeyDeleted = "key:deleted"

	// KeyStateChanged fires if a key track advanced. Parameter: zone name, key type, key tag, old state, new state
	KeyStateChanged = "key:stateChanged"

	// KeyStateTimeout fires if a key track waits longer than its timeout class allows.
	// Parameter: zone name, key type, key tag, state, retries
	KeyStateTimeout = "key:stateTimeout"

	// DSSubmitted fires after the registrar accepted a DS update. Parameter: zone name, registrar name, key tags
	DSSubmitted = "ds:submitted"

	// DSRemoved fires after the registrar accepted the retraction of all DS. Parameter: zone name, registrar name
	DSRemoved = "ds:removed"

	// ZoneProcessed fires after the status of a zone was persisted. Parameter: zone name, ksk state, zsk state
	ZoneProcessed = "zone:processed"

	// ZoneAborted fires if processing of a zone was aborted. Parameter: zone name, error
	ZoneAborted = "zone:aborted"

	// ZoneValidated fires after the chain of trust of a zone was checked. Parameter: zone name, success
	ZoneValidated = "zone:validated"

	// RunFinished fires after all zones were processed. Parameter: number of zones, number of aborted zones
	RunFinished = "run:finished"
)

// NewBus creates the event bus of one invocation. Subscribers (metrics, journal) are attached
// by the run driver, so nothing outlives the run.
func NewBus() EventBus.Bus {
	return EventBus.New()
}
