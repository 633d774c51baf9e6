// Package keystore keeps the key material of the managed zones in BIND format: one pair of
// K<zone>.+<alg>+<tag>.key and .private files per key inside the directory of the zone.
// The key files are read by the signing name server, the timing metadata is kept in the
// comments of the .key file and in the .private file.
package keystore

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/miekg/dns"

	"github.com/dskm-project/dskm/log"
	"github.com/dskm-project/dskm/model"
	"github.com/dskm-project/dskm/util"
)

const (
	publicSuffix  = ".key"
	privateSuffix = ".private"

	timestampFormat = "20060102150405"

	publicFileMode  = 0o644
	privateFileMode = 0o600

	dnskeyProtocol = 3

	// generation is retried if the key tag is 0 or collides with an existing key of the zone
	generateAttempts = 5
)

var (
	// ErrCorruptKey is returned if the key files contradict themselves
	ErrCorruptKey = errors.New("corrupt key material")

	// ErrTagCollision is returned if no key with an unused tag could be generated
	ErrTagCollision = errors.New("key tag collision")
)

// Material is one key of a zone
type Material struct {
	Zone   string
	Type   model.KeyType
	Key    *dns.DNSKEY
	Timing model.Timing

	// base is the path of the key files without suffix
	base string
}

// Tag returns the key tag
func (m *Material) Tag() uint16 {
	return m.Key.KeyTag()
}

// File returns the path of the public key file
func (m *Material) File() string {
	return m.base + publicSuffix
}

func (m *Material) String() string {
	return fmt.Sprintf("%s/%s/%d", m.Zone, m.Type, m.Tag())
}

// GenerateRequest describes a new key
type GenerateRequest struct {
	Zone      string
	Type      model.KeyType
	Algorithm uint8
	Bits      int
	Timing    model.Timing
}

// Store reads and writes key files below the root directory, each zone has its own sub directory
type Store struct {
	root string
	ttl  uint32
}

// New creates a store for the zone directories below root
func New(root string, ttl uint32) *Store {
	return &Store{root: root, ttl: ttl}
}

// Dir returns the directory of the zone
func (s *Store) Dir(zone string) string {
	return filepath.Join(s.root, zone)
}

// Generate creates a new key and writes its files
func (s *Store) Generate(req GenerateRequest) (*Material, error) {
	if _, ok := dns.AlgorithmToString[req.Algorithm]; !ok {
		return nil, fmt.Errorf("unknown algorithm %d", req.Algorithm)
	}

	flags := uint16(dns.ZONE)
	if req.Type == model.KeyTypeKSK {
		flags |= dns.SEP
	}

	for attempt := 0; attempt < generateAttempts; attempt++ {
		key := &dns.DNSKEY{
			Hdr: dns.RR_Header{
				Name:   dns.Fqdn(req.Zone),
				Rrtype: dns.TypeDNSKEY,
				Class:  dns.ClassINET,
				Ttl:    s.ttl,
			},
			Flags:     flags,
			Protocol:  dnskeyProtocol,
			Algorithm: req.Algorithm,
		}

		priv, err := key.Generate(req.Bits)
		if err != nil {
			return nil, fmt.Errorf("can't generate %s of %s with %s/%d: %w",
				req.Type, req.Zone, dns.AlgorithmToString[req.Algorithm], req.Bits, err)
		}

		m := &Material{
			Zone:   req.Zone,
			Type:   req.Type,
			Key:    key,
			Timing: req.Timing,
			base:   filepath.Join(s.Dir(req.Zone), baseName(key)),
		}

		// registrars refuse DS with tag 0
		if m.Tag() == 0 {
			log.PrefixedLog("keystore").Debugf("key tag 0 for %s, generating again", req.Zone)

			continue
		}

		if _, err := os.Stat(m.File()); err == nil {
			log.PrefixedLog("keystore").Debugf("key tag %d of %s already in use, generating again", m.Tag(), req.Zone)

			continue
		}

		if err := s.write(m, key.PrivateKeyString(priv)); err != nil {
			return nil, err
		}

		log.PrefixedLog("keystore").Infof("created %s %s (%s)", req.Type, m, m.Timing)

		return m, nil
	}

	return nil, fmt.Errorf("%w: no unused key tag for %s of %s after %d attempts",
		ErrTagCollision, req.Type, req.Zone, generateAttempts)
}

// List reads all keys of the zone
func (s *Store) List(zone string) ([]*Material, error) {
	files, err := s.files(zone, publicSuffix)
	if err != nil {
		return nil, err
	}

	res := make([]*Material, 0, len(files))

	for _, f := range files {
		m, err := s.Read(zone, f)
		if err != nil {
			return nil, err
		}

		res = append(res, m)
	}

	return res, nil
}

// Read reads the public key file of the zone. The key type given in the header comment
// must agree with the SEP flag of the key.
func (s *Store) Read(zone, file string) (*Material, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("can't read key file '%s': %w", file, err)
	}

	rr, err := dns.NewRR(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: can't parse '%s': %w", ErrCorruptKey, file, err)
	}

	key, ok := rr.(*dns.DNSKEY)
	if !ok {
		return nil, fmt.Errorf("%w: '%s' contains no DNSKEY", ErrCorruptKey, file)
	}

	if !strings.EqualFold(key.Hdr.Name, dns.Fqdn(zone)) {
		return nil, fmt.Errorf("%w: '%s' is a key of %s", ErrCorruptKey, file, key.Hdr.Name)
	}

	kt, timing, err := parseComments(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %w", ErrCorruptKey, file, err)
	}

	sep := key.Flags&dns.SEP != 0
	if kt == nil {
		t := model.KeyTypeZSK
		if sep {
			t = model.KeyTypeKSK
		}

		kt = &t
	}

	if sep != (*kt == model.KeyTypeKSK) || key.Flags&dns.ZONE == 0 {
		return nil, fmt.Errorf("%w: '%s' is a %s but has flags %d", ErrCorruptKey, file, kt, key.Flags)
	}

	return &Material{
		Zone:   zone,
		Type:   *kt,
		Key:    key,
		Timing: timing,
		base:   strings.TrimSuffix(file, publicSuffix),
	}, nil
}

// SetTiming changes the timing metadata of the key and rewrites its files
func (s *Store) SetTiming(m *Material, timing model.Timing) error {
	private, err := os.ReadFile(m.base + privateSuffix)
	if err != nil {
		return fmt.Errorf("can't read private key of %s: %w", m, err)
	}

	old := m.Timing
	m.Timing = timing

	if err := s.write(m, stripPrivateTiming(string(private))); err != nil {
		m.Timing = old

		return err
	}

	log.PrefixedLog("keystore").Debugf("timing of %s set to %s", m, timing)

	return nil
}

// DS returns the digest of the DS record referring to the key
func (s *Store) DS(m *Material, digestType model.DigestType) (string, error) {
	ds := m.Key.ToDS(uint8(digestType))
	if ds == nil {
		return "", fmt.Errorf("can't compute %s digest of %s", digestType, m)
	}

	return ds.Digest, nil
}

// Delete removes the files of the key with the tag
func (s *Store) Delete(zone string, tag uint16) error {
	return s.remove(zone, fmt.Sprintf("K%s+*+%05d.*", dns.Fqdn(zone), tag))
}

// DeleteAll removes the files of all keys of the zone
func (s *Store) DeleteAll(zone string) error {
	return s.remove(zone, fmt.Sprintf("K%s+*.*", dns.Fqdn(zone)))
}

func (s *Store) remove(zone, pattern string) error {
	matches, err := filepath.Glob(filepath.Join(s.Dir(zone), pattern))
	if err != nil {
		return fmt.Errorf("can't list key files of %s: %w", zone, err)
	}

	logger := log.PrefixedLog("keystore")

	var result error

	for _, f := range matches {
		if err := os.Remove(f); err != nil {
			result = multierror.Append(result, fmt.Errorf("can't delete key file: %w", err))

			continue
		}

		logger.Infof("deleted %s", filepath.Base(f))
	}

	return result
}

func (s *Store) files(zone, suffix string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir(zone), fmt.Sprintf("K%s+*%s", dns.Fqdn(zone), suffix)))
	if err != nil {
		return nil, fmt.Errorf("can't list key files of %s: %w", zone, err)
	}

	return matches, nil
}

func (s *Store) write(m *Material, private string) error {
	var pub strings.Builder

	kind := "zone-signing"
	if m.Type == model.KeyTypeKSK {
		kind = "key-signing"
	}

	fmt.Fprintf(&pub, "; This is a %s key, keyid %d, for %s\n", kind, m.Tag(), dns.Fqdn(m.Zone))

	for _, l := range timingLines(m.Timing) {
		fmt.Fprintf(&pub, "; %s\n", l)
	}

	pub.WriteString(m.Key.String())
	pub.WriteString("\n")

	priv := strings.TrimRight(private, "\n") + "\n"
	for _, l := range timingLines(m.Timing) {
		// the private file carries the timing without the human readable part
		priv += strings.SplitN(l, " (", 2)[0] + "\n"
	}

	if err := util.WriteFileAtomic(m.base+privateSuffix, []byte(priv), privateFileMode); err != nil {
		return fmt.Errorf("can't write private key of %s: %w", m, err)
	}

	if err := util.WriteFileAtomic(m.base+publicSuffix, []byte(pub.String()), publicFileMode); err != nil {
		return fmt.Errorf("can't write public key of %s: %w", m, err)
	}

	return nil
}

func baseName(key *dns.DNSKEY) string {
	return fmt.Sprintf("K%s+%03d+%05d", key.Hdr.Name, key.Algorithm, key.KeyTag())
}

var timingFields = []string{"Publish", "Activate", "Inactive", "Delete"}

func timingValues(t *model.Timing) []*int64 {
	return []*int64{&t.Publish, &t.Active, &t.Inactive, &t.Delete}
}

func timingLines(t model.Timing) []string {
	var res []string

	for i, v := range timingValues(&t) {
		if *v == 0 {
			continue
		}

		ts := time.Unix(*v, 0).UTC()
		res = append(res, fmt.Sprintf("%s: %s (%s)", timingFields[i], ts.Format(timestampFormat), ts.Format(time.ANSIC)))
	}

	return res
}

func stripPrivateTiming(private string) string {
	var sb strings.Builder

	scanner := bufio.NewScanner(strings.NewReader(private))
	for scanner.Scan() {
		line := scanner.Text()

		field, _, _ := strings.Cut(line, ":")
		if isTimingField(field) {
			continue
		}

		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}

func isTimingField(field string) bool {
	for _, f := range timingFields {
		if f == field {
			return true
		}
	}

	return false
}

// parseComments returns the key type of the header comment (nil if missing) and the timing
func parseComments(content string) (*model.KeyType, model.Timing, error) {
	var (
		kt     *model.KeyType
		timing model.Timing
	)

	values := timingValues(&timing)

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line, ok := strings.CutPrefix(strings.TrimSpace(scanner.Text()), ";")
		if !ok {
			continue
		}

		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "This is a key-signing key"):
			t := model.KeyTypeKSK
			kt = &t
		case strings.HasPrefix(line, "This is a zone-signing key"):
			t := model.KeyTypeZSK
			kt = &t
		}

		field, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		for i, f := range timingFields {
			if f != field {
				continue
			}

			ts, err := parseTimestamp(value)
			if err != nil {
				return nil, timing, fmt.Errorf("invalid %s time: %w", f, err)
			}

			*values[i] = ts
		}
	}

	return kt, timing, scanner.Err()
}

func parseTimestamp(value string) (int64, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, errors.New("empty timestamp")
	}

	t, err := time.Parse(timestampFormat, fields[0])
	if err != nil {
		return 0, err
	}

	return t.Unix(), nil
}
