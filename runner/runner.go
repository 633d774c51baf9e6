// Package runner drives one invocation: it builds the context of the run, processes all managed
// zones below the root directory and reports the outcome.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/dskm-project/dskm/config"
	"github.com/dskm-project/dskm/evt"
	"github.com/dskm-project/dskm/instanceid"
	"github.com/dskm-project/dskm/journal"
	"github.com/dskm-project/dskm/keystore"
	"github.com/dskm-project/dskm/lock"
	"github.com/dskm-project/dskm/log"
	"github.com/dskm-project/dskm/metrics"
	"github.com/dskm-project/dskm/notify"
	"github.com/dskm-project/dskm/registrar"
	"github.com/dskm-project/dskm/resolver"
	"github.com/dskm-project/dskm/util"
	"github.com/dskm-project/dskm/zone"
)

// Registrars resolves the bindings of the zones and lists the registrars with job introspection
type Registrars interface {
	zone.Registrars
	External() []registrar.Registrar
}

// Runner processes the managed zones of one invocation
type Runner struct {
	cfg *config.Config

	resolvers  zone.Resolvers
	registrars Registrars
	keys       zone.KeyStore
	sender     notify.Sender
	locker     lock.Locker
	clock      func() time.Time

	bus       EventBus.Bus
	collector *metrics.Collector
	journal   *journal.Journal
}

// Option customizes a Runner
type Option func(*Runner)

// WithResolvers replaces the name servers built from the configuration
func WithResolvers(r zone.Resolvers) Option {
	return func(rn *Runner) {
		rn.resolvers = r
	}
}

// WithRegistrars replaces the registrars built from the configuration
func WithRegistrars(r Registrars) Option {
	return func(rn *Runner) {
		rn.registrars = r
	}
}

// WithSender replaces the mail sender built from the configuration
func WithSender(s notify.Sender) Option {
	return func(rn *Runner) {
		rn.sender = s
	}
}

// WithLocker replaces the run lock built from the configuration
func WithLocker(l lock.Locker) Option {
	return func(rn *Runner) {
		rn.locker = l
	}
}

// WithClock sets the time source of the run
func WithClock(clock func() time.Time) Option {
	return func(rn *Runner) {
		rn.clock = clock
	}
}

// WithJournal replaces the journal built from the configuration
func WithJournal(j *journal.Journal) Option {
	return func(rn *Runner) {
		rn.journal = j
	}
}

// New creates the context of a run. Everything not passed as option is built from cfg.
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	r := &Runner{cfg: cfg, clock: time.Now}

	for _, opt := range opts {
		opt(r)
	}

	var err error

	if r.sender == nil {
		r.sender = notify.NewSender(cfg.Mail)
	}

	if r.registrars == nil {
		if r.registrars, err = registrar.NewDirectory(cfg, r.sender); err != nil {
			return nil, err
		}
	}

	if r.resolvers == nil {
		if r.resolvers, err = resolver.NewSet(&cfg.Servers); err != nil {
			return nil, fmt.Errorf("can't create resolvers: %w", err)
		}
	}

	if r.locker == nil {
		if r.locker, err = lock.New(cfg); err != nil {
			return nil, fmt.Errorf("can't create run lock: %w", err)
		}
	}

	if r.journal == nil {
		if r.journal, err = journal.New(cfg.Journal); err != nil {
			return nil, err
		}
	}

	r.keys = keystore.New(cfg.Root, cfg.Keys.TTL)
	r.bus = evt.NewBus()
	r.collector = metrics.New()

	if err := r.collector.RegisterEventListeners(r.bus); err != nil {
		return nil, err
	}

	if err := r.journal.RegisterEventListeners(r.bus); err != nil {
		return nil, err
	}

	return r, nil
}

// Metrics returns the collector of the run
func (r *Runner) Metrics() *metrics.Collector {
	return r.collector
}

// Bus returns the event bus of the run
func (r *Runner) Bus() EventBus.Bus {
	return r.bus
}

func (r *Runner) env() *zone.Env {
	return &zone.Env{
		Config:     r.cfg,
		Keys:       r.keys,
		Resolvers:  r.resolvers,
		Registrars: r.registrars,
		Bus:        r.bus,
		Clock:      r.clock,
	}
}

// RunContext returns ctx with the logger of the run
func RunContext(ctx context.Context, prefix string) (context.Context, *logrus.Entry) {
	return log.NewCtx(ctx, log.PrefixedLog(prefix).WithField("run", instanceid.Short()))
}

// Run processes all managed zones: load, state transition and validation. Aborted zones are
// skipped and reported in the returned error, the other zones are processed anyway.
// In cron mode a summary of all warnings and errors is mailed.
func (r *Runner) Run(ctx context.Context, cron bool) error {
	ctx, logger := RunContext(ctx, "run")

	summary := log.NewSummaryHook()
	defer summary.Close()

	err := r.runLocked(ctx, func(ctx context.Context) error {
		return r.processAll(ctx)
	})

	var aborted *multierror.Error

	switch {
	case errors.As(err, &aborted):
		logger.Warnf("%d zone(s) skipped", len(aborted.Errors))
	case err != nil:
		logger.Error(err)
	}

	r.finish(ctx)

	if cron {
		r.mailSummary(ctx, summary)
	}

	return err
}

// runLocked calls fn while holding the run lock, the lock file may live in the root
func (r *Runner) runLocked(ctx context.Context, fn func(context.Context) error) error {
	if err := r.ensureRoot(ctx); err != nil {
		return err
	}

	if err := r.locker.Acquire(ctx); err != nil {
		return fmt.Errorf("can't acquire run lock: %w", err)
	}

	defer func() {
		util.LogOnErrorWithEntry(log.FromCtx(ctx), "can't release run lock: ", r.locker.Release(ctx))
	}()

	return fn(ctx)
}

func (r *Runner) processAll(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	zones, err := r.ZoneNames(ctx)
	if err != nil {
		return err
	}

	logger.Debugf("zones: %v", zones)

	var (
		result  error
		aborted int
	)

	for _, name := range zones {
		if err := r.processZone(ctx, name); err != nil {
			aborted++

			result = multierror.Append(result, err)
		}
	}

	r.bus.Publish(evt.RunFinished, len(zones), aborted)

	return result
}

func (r *Runner) processZone(ctx context.Context, name string) error {
	ctx, _ = log.CtxWithFields(ctx, logrus.Fields{"zone": name})

	z, err := zone.Load(ctx, r.env(), name)

	switch {
	case errors.Is(err, zone.ErrCompleted):
		return nil
	case err != nil:
		log.FromCtx(ctx).Error(err)
		r.skip(ctx, name, err)

		return err
	}

	// transition errors are logged by the zone
	if err := z.PerformStateTransition(ctx); err != nil {
		r.skip(ctx, name, err)

		return err
	}

	z.Validate(ctx)

	return nil
}

func (r *Runner) skip(ctx context.Context, name string, err error) {
	log.FromCtx(ctx).Warnf("Skipping zone %s", name)

	r.bus.Publish(evt.ZoneAborted, name, err)
}

// ZoneNames returns the zone directories below the root, longest name first, so child zones are
// processed before their parents. A missing root is created.
func (r *Runner) ZoneNames(ctx context.Context) ([]string, error) {
	logger := log.FromCtx(ctx)

	if err := r.ensureRoot(ctx); err != nil {
		return nil, err
	}

	logger.Debugf("Scanning %s", r.cfg.Root)

	entries, err := os.ReadDir(r.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("can't scan key root directory: %w", err)
	}

	var names []string

	for _, e := range entries {
		if e.IsDir() && e.Name()[0] != '.' {
			names = append(names, e.Name())
		}
	}

	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}

		return names[i] < names[j]
	})

	return names, nil
}

func (r *Runner) ensureRoot(ctx context.Context) error {
	if _, err := os.Stat(r.cfg.Root); !errors.Is(err, os.ErrNotExist) {
		return nil
	}

	log.FromCtx(ctx).Warn("No key root directory; creating one.")

	if err := os.MkdirAll(r.cfg.Root, 0o750); err != nil {
		return fmt.Errorf("can't create key root directory: %w", err)
	}

	return nil
}

func (r *Runner) finish(ctx context.Context) {
	logger := log.FromCtx(ctx)

	r.journal.CleanUp()

	if r.cfg.Metrics.IsEnabled() {
		util.LogOnErrorWithEntry(logger, "", r.collector.WriteToTextfile(r.cfg.Metrics.Textfile))
	}
}

func (r *Runner) mailSummary(ctx context.Context, summary *log.SummaryHook) {
	if !r.cfg.Mail.IsEnabled() {
		return
	}

	subject, body, ok := summary.Summary()
	if !ok {
		return
	}

	// the summary must not contain its own delivery problems
	summary.Close()

	tag := "dskm"
	if hn := util.HostnameString(); hn != "" {
		tag += "@" + hn
	}

	subject = fmt.Sprintf("[%s %s] %s", tag, instanceid.Short(), subject)

	util.LogOnErrorWithEntry(log.FromCtx(ctx), "can't mail run summary: ",
		r.sender.Send(ctx, r.cfg.Mail.Recipients, subject, body))
}
