package model

//go:generate go run github.com/abice/go-enum -f=$GOFILE --marshal --names

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SecondsPerDay is the granularity of all configured timing intervals
const SecondsPerDay = int64(24 * time.Hour / time.Second)

// KeyType is the role of a DNSSEC key ENUM(
// KSK // key signing key, carries the SEP flag
// ZSK // zone signing key
// )
type KeyType int

// Lower returns the lower case name used as key in the persisted documents
func (x KeyType) Lower() string {
	return strings.ToLower(x.String())
}

// Method is the signing method of a zone ENUM(
// unsigned // zone is not signed
// NSEC // signed with NSEC denial of existence
// NSEC3 // signed with NSEC3 denial of existence
// )
type Method int

// TimeoutClass decides when waiting in a state is worth a warning ENUM(
// none // never times out
// short // warn after a few hours of retries
// long // warn after the prepublish period plus the inactive to delete interval
// inactive // warn once the inactive time of the key plus a short grace has passed
// delete // warn once the delete time of the key plus a short grace has passed
// )
type TimeoutClass int

// DigestType is the hash algorithm of a DS record ENUM(
// SHA1=1 // SHA-1 digest
// SHA256=2 // SHA-256 digest
// SHA384=4 // SHA-384 digest
// )
type DigestType uint8

// Activity describes how a DS update changes the set of keys submitted to the parent
type Activity string

const (
	// ActivityPublish1 submits the DS of the first KSK
	ActivityPublish1 Activity = "publish1"
	// ActivityPublish2 submits the DS of the successor KSK in addition
	ActivityPublish2 Activity = "publish2"
	// ActivityRetire keeps only the DS of the confirming key
	ActivityRetire Activity = "retire"
	// ActivityDelete retracts all DS
	ActivityDelete Activity = "delete"
)

// IsPublish returns true for all publishing activities
func (a Activity) IsPublish() bool {
	return strings.HasPrefix(string(a), "publish")
}

// Timing holds the milestones of a key as unix timestamps, 0 means unset
type Timing struct {
	Publish  int64 `json:"publish"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
	Delete   int64 `json:"delete"`
}

// String implements `fmt.Stringer`
func (t Timing) String() string {
	return fmt.Sprintf("P:%s, A:%s, I:%s, D:%s",
		FormatTimestamp(t.Publish), FormatTimestamp(t.Active), FormatTimestamp(t.Inactive), FormatTimestamp(t.Delete))
}

// FormatTimestamp formats a unix timestamp, 0 is printed as UNSET
func FormatTimestamp(ts int64) string {
	if ts == 0 {
		return "UNSET"
	}

	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

// TimingParams are the cascaded intervals of one key type in days
type TimingParams struct {
	// PublishToActive is the prepublish interval
	PublishToActive int `json:"pa" yaml:"pa"`
	// ActiveToInactive is the lifetime of a key
	ActiveToInactive int `json:"ai" yaml:"ai"`
	// InactiveToDelete is the time a retired key stays published
	InactiveToDelete int `json:"id" yaml:"id"`
	// Overlap is the rollover time between inactive of the incumbent and active of the successor
	Overlap int `json:"overlap" yaml:"overlap"`
}

// Validate ensures the schedule can guarantee a non-overlapping rollover
func (p TimingParams) Validate() error {
	if p.ActiveToInactive <= p.PublishToActive+p.Overlap+p.InactiveToDelete {
		return fmt.Errorf("ai (%d) must be greater than pa + overlap + id (%d + %d + %d)",
			p.ActiveToInactive, p.PublishToActive, p.Overlap, p.InactiveToDelete)
	}

	for name, v := range map[string]int{
		"pa": p.PublishToActive, "ai": p.ActiveToInactive, "id": p.InactiveToDelete, "overlap": p.Overlap,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative (%d)", name, v)
		}
	}

	return nil
}

// KeyTimings groups the timing parameters of both key types
type KeyTimings struct {
	KSK TimingParams `json:"ksk" yaml:"ksk"`
	ZSK TimingParams `json:"zsk" yaml:"zsk"`
}

// For returns the parameters of the key type
func (t *KeyTimings) For(kt KeyType) TimingParams {
	if kt == KeyTypeKSK {
		return t.KSK
	}

	return t.ZSK
}

// Validate checks the parameters of both key types
func (t *KeyTimings) Validate() error {
	if err := t.KSK.Validate(); err != nil {
		return fmt.Errorf("ksk: %w", err)
	}

	if err := t.ZSK.Validate(); err != nil {
		return fmt.Errorf("zsk: %w", err)
	}

	return nil
}

// TrackStatus is the persisted state machine position of one key track
type TrackStatus struct {
	State   int `json:"state"`
	Retries int `json:"retries"`
}

// ErrMalformedDSArg is returned for DS submission arguments with empty fields
var ErrMalformedDSArg = errors.New("malformed DS argument")

// DSArg describes one DS record to be published at the parent
type DSArg struct {
	Tag        uint16     `json:"tag"`
	Algorithm  uint8      `json:"alg"`
	DigestType DigestType `json:"digestType"`
	Digest     string     `json:"digest"`
	Flags      uint16     `json:"flags,omitempty"`
	PublicKey  string     `json:"pubkey,omitempty"`
}

// Validate refuses arguments which must never be sent to a registrar
func (a DSArg) Validate() error {
	switch {
	case a.Tag == 0:
		return fmt.Errorf("%w: empty key tag", ErrMalformedDSArg)
	case a.Algorithm == 0:
		return fmt.Errorf("%w: empty algorithm of key %d", ErrMalformedDSArg, a.Tag)
	case !a.DigestType.IsValid():
		return fmt.Errorf("%w: invalid digest type %d of key %d", ErrMalformedDSArg, a.DigestType, a.Tag)
	case strings.TrimSpace(a.Digest) == "":
		return fmt.Errorf("%w: empty digest of key %d", ErrMalformedDSArg, a.Tag)
	}

	return nil
}

// String returns the presentation format of the DS rdata
func (a DSArg) String() string {
	return fmt.Sprintf("%d %d %d %s", a.Tag, a.Algorithm, uint8(a.DigestType), a.Digest)
}

// ValidateDSArgs validates all arguments, the first error wins
func ValidateDSArgs(args []DSArg) error {
	for _, arg := range args {
		if err := arg.Validate(); err != nil {
			return err
		}
	}

	return nil
}
