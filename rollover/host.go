package rollover

import (
	"context"

	"github.com/dskm-project/dskm/config"
	"github.com/dskm-project/dskm/model"
)

// ParentDS is the observed state of the DS of a key at the parent
type ParentDS int

const (
	// ParentDSAbsent means the parent publishes no DS referring to the key
	ParentDSAbsent ParentDS = iota
	// ParentDSPresent means the parent publishes a DS referring to the key
	ParentDSPresent
	// ParentDSNoParent means the zone has no parent maintaining DS records
	ParentDSNoParent
)

// Host is the zone owning a key. Keys refer to their zone by name, everything they need to
// observe or change outside of themselves goes through the host.
type Host interface {
	// Now returns the time of the run as unix timestamp
	Now() int64
	// Params returns the timing intervals of the zone for the key type
	Params(kt model.KeyType) model.TimingParams
	// Schedule returns the run schedule the timeouts are derived from
	Schedule() *config.Schedule
	// Track returns the mutable status of the key track
	Track(kt model.KeyType) *model.TrackStatus

	// SignedBy returns true if the check server answers with an RRSIG made by the key
	SignedBy(ctx context.Context, kt model.KeyType, tag uint16) (bool, error)
	// ParentDS looks up the DS of the key at the parent
	ParentDS(ctx context.Context, tag uint16) (ParentDS, error)
	// MasterHasKey returns true if the key is part of the DNSKEY set served by the master.
	// A failed lookup is an error, never an absent key.
	MasterHasKey(ctx context.Context, tag uint16) (bool, error)

	// CreateSuccessor creates the key following k
	CreateSuccessor(ctx context.Context, k *SigningKey) error
	// MarkForDeletion schedules the removal of the key after the run succeeded
	MarkForDeletion(tag uint16)
	// MarkAllForDeletion schedules the removal of all keys and the reset of the zone to unsigned
	MarkAllForDeletion()
	// UpdateRemoteDS changes the set of DS submitted to the parent
	UpdateRemoteDS(activity model.Activity, tag uint16)
	// SaveTiming persists the changed timing of the key
	SaveTiming(k *SigningKey) error

	// Publish sends an event to the subscribers of the run
	Publish(topic string, args ...interface{})
}
