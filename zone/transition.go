package zone

import (
	"context"
	"fmt"

	"github.com/dskm-project/dskm/evt"
	"github.com/dskm-project/dskm/model"
	"github.com/dskm-project/dskm/registrar"
	"github.com/dskm-project/dskm/rollover"
)

// PerformStateTransition advances each key track at most one state. DS changes are handed over
// to the registrar, afterwards keys marked for deletion are removed and the status is persisted.
// On error the keys created during the run are removed and the status stays untouched.
func (z *ManagedZone) PerformStateTransition(ctx context.Context) error {
	z.remoteDSChanged = false
	z.toBeDeleted = nil
	z.deleteAll = false

	if err := z.transition(ctx); err != nil {
		z.logger(ctx).Errorf("Aborting zone %s: %s", z.Name, err)
		z.undo(ctx)

		return abort(z.Name, err)
	}

	if err := z.commit(ctx); err != nil {
		z.logger(ctx).Errorf("Aborting zone %s: %s", z.Name, err)
		z.undo(ctx)

		return abort(z.Name, err)
	}

	z.Publish(evt.ZoneProcessed, z.Name, z.Status.KSK.State, z.Status.ZSK.State)

	return nil
}

func (z *ManagedZone) transition(ctx context.Context) error {
	z.sortTracks()

	for _, kt := range []model.KeyType{model.KeyTypeKSK, model.KeyTypeZSK} {
		for i, k := range z.track(kt) {
			advanced, err := k.Transition(ctx, z, i > 0)
			if err != nil {
				return err
			}

			if advanced {
				break
			}
		}
	}

	if !z.remoteDSChanged {
		return nil
	}

	return z.submitDS(ctx)
}

func (z *ManagedZone) commit(ctx context.Context) error {
	for _, tag := range z.toBeDeleted {
		if err := z.deleteKey(tag); err != nil {
			return err
		}
	}

	if z.deleteAll {
		if err := z.deleteAllKeys(ctx); err != nil {
			return err
		}
	}

	if err := z.saveStatus(); err != nil {
		return err
	}

	z.justCreated = nil

	return nil
}

// UpdateRemoteDS changes the tags of the KSK whose DS should be published at the parent
func (z *ManagedZone) UpdateRemoteDS(activity model.Activity, tag uint16) {
	switch {
	case activity == model.ActivityRetire:
		z.Status.SubmittedToParent = []uint16{tag}
	case activity == model.ActivityDelete:
		z.Status.SubmittedToParent = []uint16{}
	case activity.IsPublish():
		for _, t := range z.Status.SubmittedToParent {
			if t == tag {
				z.remoteDSChanged = true

				return
			}
		}

		z.Status.SubmittedToParent = append(z.Status.SubmittedToParent, tag)
	default:
		return
	}

	z.remoteDSChanged = true
}

// DSArgs returns one argument per submitted KSK and configured digest type
func (z *ManagedZone) DSArgs() ([]model.DSArg, error) {
	var args []model.DSArg

	for _, tag := range z.Status.SubmittedToParent {
		k := z.ksk(tag)
		if k == nil {
			return nil, fmt.Errorf("%w: DS of KSK %d should be at the parent", ErrMissingKey, tag)
		}

		for _, dt := range z.env.Config.Keys.DigestTypes {
			args = append(args, model.DSArg{
				Tag:        k.Tag,
				Algorithm:  k.Algorithm,
				DigestType: dt,
				Digest:     k.Digests[dt],
				Flags:      k.Flags,
				PublicKey:  k.PublicKey,
			})
		}
	}

	if err := model.ValidateDSArgs(args); err != nil {
		return nil, err
	}

	return args, nil
}

func (z *ManagedZone) ksk(tag uint16) *rollover.SigningKey {
	for _, k := range z.KSKs {
		if k.Tag == tag {
			return k
		}
	}

	return nil
}

func (z *ManagedZone) submitDS(ctx context.Context) error {
	logger := z.logger(ctx)

	reg, err := z.env.Registrars.Get(z.Config.Registrar)
	if err != nil {
		return err
	}

	if len(z.Status.SubmittedToParent) == 0 {
		return z.removeAllDS(ctx, reg)
	}

	args, err := z.DSArgs()
	if err != nil {
		return err
	}

	logger.Infof("requesting DS of keys %v at registrar %s", z.Status.SubmittedToParent, reg.Name())

	res, err := reg.SubmitDS(ctx, z.Name, args)
	if err := checkResult(res, err, "update DS of keys %v of %s at registrar %s",
		z.Status.SubmittedToParent, z.Name, reg.Name()); err != nil {
		return err
	}

	logger.Infof("DS of keys %v of %s at registrar %s updated (%s)",
		z.Status.SubmittedToParent, z.Name, reg.Name(), res.TrackingID)

	z.Publish(evt.DSSubmitted, z.Name, reg.Name(), append([]uint16{}, z.Status.SubmittedToParent...))

	return nil
}

func (z *ManagedZone) removeAllDS(ctx context.Context, reg registrar.Registrar) error {
	res, err := reg.RemoveAllDS(ctx, z.Name)
	if err := checkResult(res, err, "delete all DS of %s at registrar %s", z.Name, reg.Name()); err != nil {
		return err
	}

	z.logger(ctx).Infof("DS of %s at registrar %s deleted (%s)", z.Name, reg.Name(), res.TrackingID)

	z.Publish(evt.DSRemoved, z.Name, reg.Name())

	return nil
}

func checkResult(res *registrar.Result, err error, format string, args ...interface{}) error {
	what := fmt.Sprintf(format, args...)

	if err != nil {
		return fmt.Errorf("%w to %s: %w", ErrRegistrarFailed, what, err)
	}

	if res == nil || !res.Success {
		id := ""
		if res != nil {
			id = res.TrackingID
		}

		return fmt.Errorf("%w to %s (%s)", ErrRegistrarFailed, what, id)
	}

	return nil
}
