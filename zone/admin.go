package zone

import (
	"context"
	"fmt"

	"github.com/miekg/dns"

	"github.com/dskm-project/dskm/evt"
	"github.com/dskm-project/dskm/model"
	"github.com/dskm-project/dskm/resolver"
	"github.com/dskm-project/dskm/rollover"
)

// Validate checks the chain of trust of zones with registrar once the DS of the first KSK is
// published: a validating resolver must answer the SOA of the zone as authenticated.
// A failed validation is only a warning.
func (z *ManagedZone) Validate(ctx context.Context) bool {
	state := z.Status.KSK.State
	if state < 3 || state > rollover.KSKStateMax || z.IsLocal() {
		return true
	}

	logger := z.logger(ctx)
	logger.Debugf("Validating %s", z.Name)

	resp, err := z.env.Resolvers.Recursives().Query(ctx, z.Name, dns.TypeSOA, resolver.WithDNSSEC())

	ok := err == nil && resp.AuthenticatedData

	switch {
	case err != nil:
		logger.Warnf("Validation of %s FAILED: %s", z.Name, err)
	case !ok:
		logger.Warnf("Validation of %s FAILED: answer is not authenticated", z.Name)
	default:
		logger.Infof("Validation of %s OK", z.Name)
	}

	z.Publish(evt.ZoneValidated, z.Name, ok)

	return ok
}

// StopSigning rolls the zone back to unsigned: all DS are retracted and every key gets a delete
// time. With force all key material is removed immediately and the zone is reset to unsigned.
// The exit code is 1 if signing can't be stopped yet.
func (z *ManagedZone) StopSigning(ctx context.Context, force bool) (int, error) {
	logger := z.logger(ctx)
	state := z.Status.KSK.State

	if !force {
		if state < 2 {
			return 1, fmt.Errorf("%w (state %d)", ErrStopTooEarly, state)
		}

		if state > rollover.KSKStateMax {
			logger.Warnf("Termination of signing already in progress (state %d)", state)

			return 0, nil
		}
	}

	z.UpdateRemoteDS(model.ActivityDelete, 0)

	for _, k := range z.allKeys() {
		if err := k.SetDeleteTime(z); err != nil {
			return 1, abort(z.Name, err)
		}
	}

	z.Status.KSK.State = rollover.KSKStateMax + 1
	z.Status.KSK.Retries = 0
	z.Status.ZSK.Retries = 0

	reg, err := z.env.Registrars.Get(z.Config.Registrar)
	if err != nil {
		return 1, abort(z.Name, err)
	}

	if err := z.removeAllDS(ctx, reg); err != nil {
		return 1, abort(z.Name, err)
	}

	if force {
		if err := z.deleteAllKeys(ctx); err != nil {
			return 1, abort(z.Name, err)
		}
	}

	if err := z.saveStatus(); err != nil {
		return 1, abort(z.Name, err)
	}

	logger.Infof("signing of %s stopped (force: %t)", z.Name, force)

	return 0, nil
}

// TestDSSubmission submits the DS of the currently submitted keys again without changing the
// state of the zone. With dryRun the arguments are only logged.
func (z *ManagedZone) TestDSSubmission(ctx context.Context, dryRun bool) error {
	logger := z.logger(ctx)

	if z.IsLocal() {
		logger.Infof("skipping %s, DS are maintained locally", z.Name)

		return nil
	}

	args, err := z.DSArgs()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		logger.Infof("no DS of %s to submit", z.Name)

		return nil
	}

	for _, arg := range args {
		logger.Infof("DS %s", arg)
	}

	if dryRun {
		return nil
	}

	reg, err := z.env.Registrars.Get(z.Config.Registrar)
	if err != nil {
		return err
	}

	res, err := reg.SubmitDS(ctx, z.Name, args)
	if err := checkResult(res, err, "submit DS of %s at registrar %s", z.Name, reg.Name()); err != nil {
		return err
	}

	logger.Infof("registrar %s accepted DS of %s:\n%s", reg.Name(), z.Name, res)

	return nil
}
