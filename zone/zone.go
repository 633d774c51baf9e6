// Package zone drives the key rollovers of one managed zone per run: it loads the persisted
// configuration and status of the zone, advances its KSK and ZSK tracks, hands DS changes over
// to the registrar of the zone and persists the new status once everything succeeded.
package zone

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/dskm-project/dskm/config"
	"github.com/dskm-project/dskm/evt"
	"github.com/dskm-project/dskm/keystore"
	"github.com/dskm-project/dskm/log"
	"github.com/dskm-project/dskm/model"
	"github.com/dskm-project/dskm/registrar"
	"github.com/dskm-project/dskm/resolver"
	"github.com/dskm-project/dskm/rollover"
	"github.com/dskm-project/dskm/util"
)

// KeyStore holds the key material of the zones
type KeyStore interface {
	Dir(zone string) string
	Generate(req keystore.GenerateRequest) (*keystore.Material, error)
	List(zone string) ([]*keystore.Material, error)
	SetTiming(m *keystore.Material, timing model.Timing) error
	DS(m *keystore.Material, digestType model.DigestType) (string, error)
	Delete(zone string, tag uint16) error
	DeleteAll(zone string) error
}

// Resolvers are the name servers observed while checking the state of a zone
type Resolvers interface {
	Master() resolver.Querier
	CheckServer(local bool) resolver.Querier
	Recursives() resolver.Querier
	ParentAuth(ctx context.Context, parent string) (resolver.Querier, error)
	MasterDNSKEYs(ctx context.Context, zone string) ([]uint16, error)
}

// Registrars resolves the registrar binding of a zone
type Registrars interface {
	Get(name string) (registrar.Registrar, error)
}

// Env is everything a zone needs from the run processing it
type Env struct {
	Config     *config.Config
	Keys       KeyStore
	Resolvers  Resolvers
	Registrars Registrars
	Bus        EventBus.BusPublisher
	Clock      func() time.Time
}

// ManagedZone is one zone with its key tracks
type ManagedZone struct {
	Name string
	// Parent is the name of the parent zone, ParentDir its directory if it is managed here too
	Parent    string
	ParentDir string

	Config Config
	Status Status

	// KSKs and ZSKs are the key tracks, the incumbent first
	KSKs []*rollover.SigningKey
	ZSKs []*rollover.SigningKey

	env       *Env
	dir       string
	now       int64
	materials map[uint16]*keystore.Material

	bootstrap bool

	remoteDSChanged bool
	justCreated     []uint16
	toBeDeleted     []uint16
	deleteAll       bool
}

// LoadOption customizes Load
type LoadOption func(*ManagedZone)

// WithoutBootstrap leaves zones which aren't signed yet untouched: no stale keys are removed and
// no keys are created, the tracks of such a zone stay empty.
func WithoutBootstrap() LoadOption {
	return func(z *ManagedZone) {
		z.bootstrap = false
	}
}

// Load reads the documents and the keys of the zone. Zones which aren't signed yet get their
// first KSK and ZSK, zones configured to stay unsigned return ErrCompleted.
// All other errors are of type *AbortError.
func Load(ctx context.Context, env *Env, name string, opts ...LoadOption) (*ManagedZone, error) {
	z := &ManagedZone{
		Name:      name,
		Parent:    util.ParentName(name),
		env:       env,
		dir:       env.Keys.Dir(name),
		now:       env.Clock().Unix(),
		materials: make(map[uint16]*keystore.Material),
		bootstrap: true,
	}

	for _, opt := range opts {
		opt(z)
	}

	if err := z.load(ctx); err != nil {
		if errors.Is(err, ErrCompleted) {
			return nil, err
		}

		z.undo(ctx)

		return nil, abort(name, err)
	}

	return z, nil
}

func (z *ManagedZone) load(ctx context.Context) error {
	logger := z.logger(ctx)

	if z.Parent != "" {
		parentDir := filepath.Join(z.env.Config.Root, z.Parent)
		if st, err := os.Stat(parentDir); err == nil && st.IsDir() {
			z.ParentDir = parentDir
		}
	}

	logger.Debugf("parent %s (local: %t)", z.Parent, z.ParentDir != "")

	var err error

	z.Config, err = readConfig(z.dir, z.Name, DefaultConfig(z.env.Config))
	if err != nil {
		return err
	}

	if err := z.Config.Timing.Validate(); err != nil {
		return fmt.Errorf("configuration error in %s%s: %w", configPrefix, z.Name, err)
	}

	z.Status, err = readStatus(z.dir, z.Name)
	if err != nil {
		return err
	}

	for _, reg := range []string{z.Config.Registrar, z.Status.OldRegistrar} {
		if !z.env.Config.IsKnownRegistrar(reg) {
			return fmt.Errorf("wrong registrar '%s' in zone config of %s", reg, z.Name)
		}
	}

	if z.Status.KSK.State == rollover.StateIdle {
		if !z.bootstrap {
			if z.Config.Method == model.MethodUnsigned {
				return ErrCompleted
			}

			return nil
		}

		// keys left by an unfinished start of signing
		if err := z.env.Keys.DeleteAll(z.Name); err != nil {
			return err
		}

		if z.Config.Method == model.MethodUnsigned {
			return ErrCompleted
		}

		for _, kt := range []model.KeyType{model.KeyTypeKSK, model.KeyTypeZSK} {
			if _, err := z.createKey(ctx, kt, 0); err != nil {
				return err
			}
		}
	} else {
		if z.Status.OldMethod != z.Config.Method {
			return fmt.Errorf("method changed from %s to %s", z.Status.OldMethod, z.Config.Method)
		}

		if z.Status.OldRegistrar != z.Config.Registrar {
			return fmt.Errorf("registrar changed from %s to %s", z.Status.OldRegistrar, z.Config.Registrar)
		}

		materials, err := z.env.Keys.List(z.Name)
		if err != nil {
			return err
		}

		for _, m := range materials {
			if _, err := z.addKey(m); err != nil {
				return err
			}
		}
	}

	z.sortTracks()

	for _, k := range z.allKeys() {
		logger.Debugf("%s: %s", k, k.Timing)
	}

	z.Status.OldMethod = z.Config.Method
	z.Status.OldRegistrar = z.Config.Registrar

	return nil
}

// IsLocal returns true if the DS of the zone are maintained without registrar
func (z *ManagedZone) IsLocal() bool {
	return z.Config.Registrar == config.RegistrarLocal
}

func (z *ManagedZone) logger(ctx context.Context) *logrus.Entry {
	return log.FromCtx(ctx).WithField("prefix", z.Name)
}

func (z *ManagedZone) createKey(ctx context.Context, kt model.KeyType, incumbentInactive int64) (*rollover.SigningKey, error) {
	keysCfg := &z.env.Config.Keys
	alg := keysCfg.AlgorithmFor(z.Config.Method)

	policy := rollover.TimingPolicy{Now: z.now, Params: *z.Config.Timing, Logger: z.logger(ctx)}

	m, err := z.env.Keys.Generate(keystore.GenerateRequest{
		Zone:      z.Name,
		Type:      kt,
		Algorithm: alg,
		Bits:      keysCfg.BitsFor(kt, alg),
		Timing:    policy.Schedule(kt, incumbentInactive),
	})
	if err != nil {
		return nil, fmt.Errorf("can't create %s: %w", kt, err)
	}

	z.justCreated = append(z.justCreated, m.Tag())

	k, err := z.addKey(m)
	if err != nil {
		return nil, err
	}

	z.Publish(evt.KeyCreated, z.Name, kt, k.Tag)

	return k, nil
}

func (z *ManagedZone) addKey(m *keystore.Material) (*rollover.SigningKey, error) {
	k := &rollover.SigningKey{
		Zone:      z.Name,
		Type:      m.Type,
		Tag:       m.Tag(),
		Algorithm: m.Key.Algorithm,
		Flags:     m.Key.Flags,
		PublicKey: m.Key.PublicKey,
		Timing:    m.Timing,
	}

	if k.Type == model.KeyTypeKSK {
		k.Digests = make(map[model.DigestType]string, len(z.env.Config.Keys.DigestTypes))

		for _, dt := range z.env.Config.Keys.DigestTypes {
			digest, err := z.env.Keys.DS(m, dt)
			if err != nil {
				return nil, err
			}

			k.Digests[dt] = digest
		}

		z.KSKs = append(z.KSKs, k)
	} else {
		z.ZSKs = append(z.ZSKs, k)
	}

	z.materials[k.Tag] = m

	return k, nil
}

func (z *ManagedZone) allKeys() []*rollover.SigningKey {
	return append(append([]*rollover.SigningKey{}, z.KSKs...), z.ZSKs...)
}

func (z *ManagedZone) track(kt model.KeyType) []*rollover.SigningKey {
	if kt == model.KeyTypeKSK {
		return z.KSKs
	}

	return z.ZSKs
}

func (z *ManagedZone) sortTracks() {
	for _, keys := range [][]*rollover.SigningKey{z.KSKs, z.ZSKs} {
		sort.SliceStable(keys, func(i, j int) bool {
			return keys[i].Timing.Active < keys[j].Timing.Active
		})
	}
}

func (z *ManagedZone) deleteKey(tag uint16) error {
	if err := z.env.Keys.Delete(z.Name, tag); err != nil {
		return err
	}

	z.KSKs = removeKey(z.KSKs, tag)
	z.ZSKs = removeKey(z.ZSKs, tag)
	delete(z.materials, tag)

	z.Publish(evt.KeyDeleted, z.Name, tag)

	return nil
}

// deleteAllKeys removes all keys and resets the zone to unsigned
func (z *ManagedZone) deleteAllKeys(ctx context.Context) error {
	tags := make([]uint16, 0, len(z.materials))
	for tag := range z.materials {
		tags = append(tags, tag)
	}

	if err := z.env.Keys.DeleteAll(z.Name); err != nil {
		return err
	}

	z.KSKs, z.ZSKs = nil, nil
	z.materials = make(map[uint16]*keystore.Material)

	z.Config = DefaultConfig(z.env.Config)
	z.Status = DefaultStatus()

	if err := z.saveConfig(); err != nil {
		return err
	}

	z.logger(ctx).Infof("all keys deleted, zone reset to %s", z.Config.Method)

	for _, tag := range tags {
		z.Publish(evt.KeyDeleted, z.Name, tag)
	}

	return nil
}

func removeKey(keys []*rollover.SigningKey, tag uint16) []*rollover.SigningKey {
	res := keys[:0]

	for _, k := range keys {
		if k.Tag != tag {
			res = append(res, k)
		}
	}

	return res
}

// undo removes the keys created during the run
func (z *ManagedZone) undo(ctx context.Context) {
	for _, tag := range z.justCreated {
		util.LogOnErrorWithEntry(z.logger(ctx), fmt.Sprintf("can't delete key %d: ", tag),
			z.env.Keys.Delete(z.Name, tag))
	}

	z.justCreated = nil
}

func (z *ManagedZone) saveConfig() error {
	return writeDocument(filepath.Join(z.dir, configPrefix+z.Name), z.Config)
}

func (z *ManagedZone) saveStatus() error {
	return writeDocument(filepath.Join(z.dir, statusPrefix+z.Name), z.Status)
}

// Now implements `rollover.Host`.
func (z *ManagedZone) Now() int64 {
	return z.now
}

// Params implements `rollover.Host`.
func (z *ManagedZone) Params(kt model.KeyType) model.TimingParams {
	return z.Config.Timing.For(kt)
}

// Schedule implements `rollover.Host`.
func (z *ManagedZone) Schedule() *config.Schedule {
	return &z.env.Config.Schedule
}

// Track implements `rollover.Host`.
func (z *ManagedZone) Track(kt model.KeyType) *model.TrackStatus {
	if kt == model.KeyTypeKSK {
		return &z.Status.KSK
	}

	return &z.Status.ZSK
}

// SignedBy implements `rollover.Host`.
// A KSK signs the DNSKEY set, a ZSK the SOA of the zone.
func (z *ManagedZone) SignedBy(ctx context.Context, kt model.KeyType, tag uint16) (bool, error) {
	qtype := dns.TypeSOA
	if kt == model.KeyTypeKSK {
		qtype = dns.TypeDNSKEY
	}

	server := z.env.Resolvers.CheckServer(z.IsLocal())

	resp, err := server.Query(ctx, z.Name, qtype, resolver.WithDNSSEC(), resolver.WithTCP())
	if errors.Is(err, resolver.ErrNoAnswer) {
		z.logger(ctx).Debugf("no %s at %s", dns.TypeToString[qtype], server)

		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("RRSIG query failed: %w", err)
	}

	return resolver.HasSignature(resp.Answer, qtype, tag), nil
}

// ParentDS implements `rollover.Host`.
// Zones with registrar are checked at the authoritative name servers of the parent, zones whose
// parent is managed here at the master.
func (z *ManagedZone) ParentDS(ctx context.Context, tag uint16) (rollover.ParentDS, error) {
	var server resolver.Querier

	switch {
	case !z.IsLocal():
		auth, err := z.env.Resolvers.ParentAuth(ctx, z.Parent)
		if err != nil {
			return rollover.ParentDSAbsent, err
		}

		server = auth
	case z.ParentDir == "":
		return rollover.ParentDSNoParent, nil
	default:
		server = z.env.Resolvers.Master()
	}

	resp, err := server.Query(ctx, z.Name, dns.TypeDS)
	if errors.Is(err, resolver.ErrNoAnswer) {
		return rollover.ParentDSAbsent, nil
	}

	if err != nil {
		return rollover.ParentDSAbsent, fmt.Errorf("DS query failed: %w", err)
	}

	if resolver.HasDS(resp.Answer, tag) {
		return rollover.ParentDSPresent, nil
	}

	return rollover.ParentDSAbsent, nil
}

// MasterHasKey implements `rollover.Host`.
func (z *ManagedZone) MasterHasKey(ctx context.Context, tag uint16) (bool, error) {
	tags, err := z.env.Resolvers.MasterDNSKEYs(ctx, z.Name)
	if err != nil {
		return false, err
	}

	return slices.Contains(tags, tag), nil
}

// CreateSuccessor implements `rollover.Host`.
func (z *ManagedZone) CreateSuccessor(ctx context.Context, k *rollover.SigningKey) error {
	_, err := z.createKey(ctx, k.Type, k.Timing.Inactive)

	return err
}

// MarkForDeletion implements `rollover.Host`.
func (z *ManagedZone) MarkForDeletion(tag uint16) {
	z.toBeDeleted = append(z.toBeDeleted, tag)
}

// MarkAllForDeletion implements `rollover.Host`.
func (z *ManagedZone) MarkAllForDeletion() {
	z.deleteAll = true
}

// SaveTiming implements `rollover.Host`.
func (z *ManagedZone) SaveTiming(k *rollover.SigningKey) error {
	m, ok := z.materials[k.Tag]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingKey, k)
	}

	return z.env.Keys.SetTiming(m, k.Timing)
}

// Publish implements `rollover.Host`.
func (z *ManagedZone) Publish(topic string, args ...interface{}) {
	if z.env.Bus != nil {
		z.env.Bus.Publish(topic, args...)
	}
}
