package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/dskm-project/dskm/log"
	"github.com/dskm-project/dskm/registrar"
	"github.com/dskm-project/dskm/zone"
)

// ErrNotManaged is returned for zones without directory below the root
var ErrNotManaged = errors.New("not a managed zone")

const statusHeader = "- timestamp -- ---------- Tracking-Id --------- Proc-ID  --- task ---  domain    result"

// StopSigning retracts all DS of the zone and schedules its keys for deletion, with force all keys
// are removed at once. The returned exit code is 0 on success and for unsigned zones.
func (r *Runner) StopSigning(ctx context.Context, name string, force bool, out io.Writer) (int, error) {
	ctx, logger := RunContext(ctx, "stop")

	names, err := r.ZoneNames(ctx)
	if err != nil {
		return 1, err
	}

	if !slices.Contains(names, name) {
		return 1, fmt.Errorf("%s: %w", name, ErrNotManaged)
	}

	fmt.Fprintf(out, "[Stopping signing of %s]\n", name)

	var code int

	err = r.runLocked(ctx, func(ctx context.Context) error {
		z, err := zone.Load(ctx, r.env(), name, zone.WithoutBootstrap())
		if err != nil {
			return err
		}

		code, err = z.StopSigning(ctx, force)

		return err
	})

	switch {
	case errors.Is(err, zone.ErrCompleted):
		logger.Warnf("Unsigned zone %s", name)

		return 0, nil
	case err != nil:
		return 1, fmt.Errorf("failed to stop signing of zone %s: %w", name, err)
	}

	fmt.Fprintln(out, "[Set dnssec-secure-to-insecure to yes in zone config of named.conf]")
	fmt.Fprintln(out, `[Do "cd <zone_dir>; rm *.jbk *.jnl *.signed ; sleep 1 ; rndc stop ; rndc start"]`)
	fmt.Fprintln(out, "[...repeat until no DNSKEYs and RRSIGs remain in zone]")

	return code, nil
}

// RegistrarStatus prints the job list of every registrar with job introspection
func (r *Runner) RegistrarStatus(ctx context.Context, out io.Writer) error {
	return r.eachRegistrar(ctx, func(ctx context.Context, reg registrar.Registrar) error {
		res, err := reg.ListPending(ctx, "")
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "[%s]\n%s\n", reg.Name(), statusHeader)

		for _, line := range res.Lines {
			fmt.Fprintln(out, line)
		}

		return nil
	})
}

// QueryStatus prints the fields of the job with the tracking id
func (r *Runner) QueryStatus(ctx context.Context, trackingID string, out io.Writer) error {
	return r.eachRegistrar(ctx, func(ctx context.Context, reg registrar.Registrar) error {
		res, err := reg.ListPending(ctx, trackingID)
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(res.Fields))
		for k := range res.Fields {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		fmt.Fprintf(out, "[%s]\n", reg.Name())

		for _, k := range keys {
			fmt.Fprintf(out, "%s:\t%s\n", k, res.Fields[k])
		}

		return nil
	})
}

// Purge removes the completion info of all jobs at every registrar
func (r *Runner) Purge(ctx context.Context) error {
	return r.eachRegistrar(ctx, func(ctx context.Context, reg registrar.Registrar) error {
		if err := reg.DeleteResult(ctx, ""); err != nil {
			return err
		}

		log.FromCtx(ctx).Infof("completion info of %s purged", reg.Name())

		return nil
	})
}

func (r *Runner) eachRegistrar(
	ctx context.Context, fn func(ctx context.Context, reg registrar.Registrar) error,
) error {
	ctx, logger := RunContext(ctx, "registrar")

	var result error

	for _, reg := range r.registrars.External() {
		err := fn(ctx, reg)

		switch {
		case errors.Is(err, registrar.ErrNotSupported):
			logger.Debugf("skipping %s: %s", reg.Name(), err)
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("%s: %w", reg.Name(), err))
		}
	}

	return result
}

// TestDSSubmission submits the DS of all zones again without changing their state
func (r *Runner) TestDSSubmission(ctx context.Context, dryRun bool) error {
	ctx, logger := RunContext(ctx, "test")

	names, err := r.ZoneNames(ctx)
	if err != nil {
		return err
	}

	var result error

	for _, name := range names {
		zctx, zlogger := log.CtxWithFields(ctx, logrus.Fields{"zone": name})

		z, err := zone.Load(zctx, r.env(), name, zone.WithoutBootstrap())
		if err == nil {
			err = z.TestDSSubmission(zctx, dryRun)
		}

		switch {
		case errors.Is(err, zone.ErrCompleted):
		case err != nil:
			zlogger.Error(err)
			zlogger.Warnf("Skipping zone %s", name)

			result = multierror.Append(result, err)
		}
	}

	if result == nil {
		logger.Infof("DS of %s tested", strings.Join(names, ", "))
	}

	return result
}
