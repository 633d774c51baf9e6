// Package rollover implements the per key state machines of KSK and ZSK rollovers.
//
// Each key type has a table of states. A key track (all keys of one type of a zone) is in
// exactly one state, the oldest key of the track is the primary, a successor being rolled in
// is the secondary. Checks with an argument containing "1" are only evaluated by the primary,
// arguments containing "2" only by the secondary, so both share one linear table.
package rollover

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dskm-project/dskm/evt"
	"github.com/dskm-project/dskm/log"
	"github.com/dskm-project/dskm/model"
)

// ErrInvalidState is returned if a track is in a state its table doesn't know
var ErrInvalidState = errors.New("invalid state")

// SigningKey is one DNSSEC key of a zone
type SigningKey struct {
	Zone      string
	Type      model.KeyType
	Tag       uint16
	Algorithm uint8
	Flags     uint16
	PublicKey string
	Timing    model.Timing
	// Digests holds the DS digests of a KSK per digest type
	Digests map[model.DigestType]string
}

func (k *SigningKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.Zone, k.Type, k.Tag)
}

// Transition evaluates the state of the key track once. It returns true if the track advanced.
// secondary is true for the successor of a track.
func (k *SigningKey) Transition(ctx context.Context, host Host, secondary bool) (bool, error) {
	track := host.Track(k.Type)
	table := Table(k.Type)
	logger := log.FromCtx(ctx).WithField("key", k.String())

	if track.State == StateIdle {
		k.advance(logger, host, track, 0)

		return true, nil
	}

	if track.State < 0 || track.State >= len(table) {
		return false, fmt.Errorf("%w %d of %s track", ErrInvalidState, track.State, k.Type)
	}

	row := table[track.State]
	responsible := isResponsible(row.CheckArg, secondary)

	logger.Debugf("state %d (%s): checking %s(%s), secondary: %t",
		track.State, row.Label, row.Check, row.CheckArg, secondary)

	if responsible {
		ok, err := k.check(ctx, host, row)
		if err != nil {
			return false, err
		}

		if ok {
			if err := k.act(ctx, host, row); err != nil {
				return false, err
			}

			k.advance(logger, host, track, row.NextState(track.State))

			return true, nil
		}
	}

	if !secondary {
		track.Retries++
	}

	if responsible && k.timedOut(host, row, track) {
		logger.Warnf("Timeout [%s] of state transition for %s at state %d (%s) after %d retries",
			row.Timeout, k, track.State, row.Label, track.Retries)
		host.Publish(evt.KeyStateTimeout, k.Zone, k.Type, k.Tag, track.State, track.Retries)
	}

	return false, nil
}

func (k *SigningKey) advance(logger *logrus.Entry, host Host, track *model.TrackStatus, next int) {
	from := track.State

	logger.Infof("State transition of %s from %d to %d (%s) after %d retries",
		k, from, next, StateLabel(k.Type, next), track.Retries)

	track.State = next
	track.Retries = 0

	host.Publish(evt.KeyStateChanged, k.Zone, k.Type, k.Tag, from, next)
}

// isResponsible returns false if the argument addresses the other member of the track
func isResponsible(arg string, secondary bool) bool {
	if strings.Contains(arg, "1") && secondary {
		return false
	}

	if strings.Contains(arg, "2") && !secondary {
		return false
	}

	return true
}

func (k *SigningKey) check(ctx context.Context, host Host, row Row) (bool, error) {
	switch row.Check {
	case CheckIncluded:
		return k.included(ctx, host, row.CheckArg)
	case CheckExcluded:
		return k.excluded(ctx, host, row.CheckArg)
	case CheckDeleted:
		present, err := host.MasterHasKey(ctx, k.Tag)
		if err != nil {
			return false, err
		}

		return !present, nil
	case CheckTime:
		milestone, err := k.Milestone(host, row.CheckArg)
		if err != nil {
			return false, err
		}

		return milestone <= host.Now(), nil
	}

	return false, fmt.Errorf("unknown check %s", row.Check)
}

func (k *SigningKey) included(ctx context.Context, host Host, arg string) (bool, error) {
	if !strings.Contains(arg, "ds") {
		return host.SignedBy(ctx, k.Type, k.Tag)
	}

	ds, err := host.ParentDS(ctx, k.Tag)
	if err != nil {
		return false, err
	}

	return ds != ParentDSAbsent, nil
}

// excluded isn't the negation of included: without parent there is nothing to include or exclude.
// A zone without parent would otherwise never leave KSK state 6 (DS2 published) or 9 (DS retire
// request submitted).
func (k *SigningKey) excluded(ctx context.Context, host Host, arg string) (bool, error) {
	if !strings.Contains(arg, "ds") {
		signed, err := host.SignedBy(ctx, k.Type, k.Tag)

		return !signed, err
	}

	ds, err := host.ParentDS(ctx, k.Tag)
	if err != nil {
		return false, err
	}

	return ds != ParentDSPresent, nil
}

// Milestone returns the point in time named by the argument of a time check
func (k *SigningKey) Milestone(host Host, name string) (int64, error) {
	params := host.Params(k.Type)
	ksk := host.Params(model.KeyTypeKSK)
	grace := host.Schedule().ShortTimeoutSeconds()

	switch name {
	case "zsk1_followup", "ksk1_followup":
		return k.Timing.Inactive - days(params.Overlap+params.PublishToActive), nil
	case "zsk1_inactive", "ksk1_inactive":
		return k.Timing.Inactive, nil
	case "zsk1_delete", "ksk1_delete":
		return k.Timing.Delete + grace, nil
	case "ds1_submit", "ds2_submit":
		return k.Timing.Active + days(ksk.PublishToActive), nil
	case "ksk_delete":
		return k.Timing.Delete + days(ksk.PublishToActive), nil
	}

	return 0, fmt.Errorf("unknown milestone '%s'", name)
}

func (k *SigningKey) act(ctx context.Context, host Host, row Row) error {
	switch row.Action {
	case ActionNone, ActionRename:
		return nil
	case ActionCreate:
		return host.CreateSuccessor(ctx, k)
	case ActionDelete:
		if row.ActionArg == DeleteAll {
			host.MarkAllForDeletion()
		} else {
			host.MarkForDeletion(k.Tag)
		}

		return nil
	case ActionSubmit:
		host.UpdateRemoteDS(model.Activity(row.ActionArg), k.Tag)

		return nil
	case ActionSetDeleteTime:
		return k.SetDeleteTime(host)
	}

	return fmt.Errorf("unknown action %s", row.Action)
}

// SetDeleteTime moves the delete time of the key to now plus the inactive to delete interval
func (k *SigningKey) SetDeleteTime(host Host) error {
	k.Timing.Delete = host.Now() + days(host.Params(k.Type).InactiveToDelete)

	if err := host.SaveTiming(k); err != nil {
		return fmt.Errorf("can't set delete time of %s: %w", k, err)
	}

	return nil
}

func (k *SigningKey) timedOut(host Host, row Row, track *model.TrackStatus) bool {
	schedule := host.Schedule()

	switch row.Timeout {
	case model.TimeoutClassShort:
		return track.Retries > schedule.ShortTimeoutHours*schedule.RunsPerDay/24
	case model.TimeoutClassInactive:
		return k.Timing.Inactive+schedule.ShortTimeoutSeconds() <= host.Now()
	case model.TimeoutClassDelete:
		return k.Timing.Delete+schedule.ShortTimeoutSeconds() <= host.Now()
	case model.TimeoutClassLong:
		return track.Retries > schedule.PrepublishAddition+
			host.Params(model.KeyTypeKSK).InactiveToDelete*schedule.RunsPerDay
	}

	return false
}

func days(d int) int64 {
	return int64(d) * model.SecondsPerDay
}
