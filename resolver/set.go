package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/miekg/dns"

	"github.com/dskm-project/dskm/config"
	"github.com/dskm-project/dskm/log"
)

const defaultPort = 53

// Set bundles the resolvers of one invocation. All caches live as long as the set,
// a new set is created for every run.
type Set struct {
	cfg     *config.Servers
	timeout time.Duration

	master     *Client
	secondary  *Client
	recursives *Client

	parents *lru.Cache
	dnskeys map[string][]uint16
}

// NewSet creates the resolvers for the configured servers
func NewSet(cfg *config.Servers) (*Set, error) {
	if len(cfg.Master) == 0 {
		return nil, errors.New("no master name server configured")
	}

	parents, err := lru.New(max(cfg.CacheSize, 1))
	if err != nil {
		return nil, fmt.Errorf("can't create parent resolver cache: %w", err)
	}

	timeout := cfg.Timeout.ToDuration()

	return &Set{
		cfg:        cfg,
		timeout:    timeout,
		master:     NewClient(cfg.Master, timeout, cfg.Attempts),
		secondary:  NewClient([]config.NameServer{cfg.CheckServer(false)}, timeout, cfg.Attempts),
		recursives: NewClient(cfg.ExternalRecursives, timeout, cfg.Attempts),
		parents:    parents,
		dnskeys:    make(map[string][]uint16),
	}, nil
}

// Master returns the resolver asking the hidden master
func (s *Set) Master() Querier {
	return s.master
}

// CheckServer returns the resolver whose answers decide if a key signs a zone.
// Zones without external registrar are checked at the master.
func (s *Set) CheckServer(local bool) Querier {
	if local {
		return s.master
	}

	return s.secondary
}

// Recursives returns the validating recursive resolvers
func (s *Set) Recursives() Querier {
	return s.recursives
}

// ParentAuth returns a resolver asking the authoritative name servers of the parent zone.
// The name servers are looked up through the master once per run.
func (s *Set) ParentAuth(ctx context.Context, parent string) (Querier, error) {
	parent = dns.Fqdn(parent)

	if c, ok := s.parents.Get(parent); ok {
		return c.(*Client), nil
	}

	resp, err := s.master.Query(ctx, parent, dns.TypeNS)
	if err != nil {
		return nil, fmt.Errorf("can't look up name servers of %s: %w", parent, err)
	}

	var servers []config.NameServer

	for _, rr := range resp.Answer {
		ns, ok := rr.(*dns.NS)
		if !ok {
			continue
		}

		servers = append(servers, s.addresses(ctx, ns.Ns)...)
	}

	if len(servers) == 0 {
		return nil, fmt.Errorf("no address of any name server of %s found", parent)
	}

	c := NewClient(servers, s.timeout, s.cfg.Attempts)
	s.parents.Add(parent, c)

	log.FromCtx(ctx).WithField("prefix", "resolver").Debugf("authoritative name servers of %s: %s", parent, c)

	return c, nil
}

func (s *Set) addresses(ctx context.Context, host string) []config.NameServer {
	var res []config.NameServer

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		resp, err := s.master.Query(ctx, host, qtype)
		if err != nil {
			continue
		}

		for _, rr := range resp.Answer {
			switch v := rr.(type) {
			case *dns.A:
				res = append(res, config.NameServer{Host: v.A.String(), Port: defaultPort})
			case *dns.AAAA:
				res = append(res, config.NameServer{Host: v.AAAA.String(), Port: defaultPort})
			}
		}
	}

	return res
}

// MasterDNSKEYs returns the tags of all keys the master publishes for the zone.
// An answer without DNSKEY yields an empty set, all other lookup failures are returned.
// Only successful lookups are cached.
func (s *Set) MasterDNSKEYs(ctx context.Context, zone string) ([]uint16, error) {
	zone = dns.Fqdn(zone)

	if tags, ok := s.dnskeys[zone]; ok {
		return tags, nil
	}

	resp, err := s.master.Query(ctx, zone, dns.TypeDNSKEY)

	switch {
	case errors.Is(err, ErrNoAnswer):
		s.dnskeys[zone] = []uint16{}

		return s.dnskeys[zone], nil
	case err != nil:
		return nil, fmt.Errorf("can't look up DNSKEY of %s at master: %w", zone, err)
	}

	tags := KeyTags(resp.Answer)
	s.dnskeys[zone] = tags

	return tags, nil
}
