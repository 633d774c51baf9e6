package zone_test

import (
	"context"
	"fmt"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/mock"

	"github.com/dskm-project/dskm/model"
	"github.com/dskm-project/dskm/registrar"
	"github.com/dskm-project/dskm/resolver"
)

type fakeQuerier struct {
	name    string
	answers map[uint16]*dns.Msg
	errs    map[uint16]error
	calls   []uint16
}

func newFakeQuerier(name string) *fakeQuerier {
	return &fakeQuerier{name: name, answers: map[uint16]*dns.Msg{}, errs: map[uint16]error{}}
}

func (f *fakeQuerier) String() string {
	return f.name
}

func (f *fakeQuerier) Query(
	_ context.Context, name string, qtype uint16, _ ...resolver.QueryOption,
) (*dns.Msg, error) {
	f.calls = append(f.calls, qtype)

	if err, ok := f.errs[qtype]; ok {
		return nil, err
	}

	if m, ok := f.answers[qtype]; ok {
		return m, nil
	}

	return new(dns.Msg), fmt.Errorf("%w: %s %s", resolver.ErrNoAnswer, name, dns.TypeToString[qtype])
}

func (f *fakeQuerier) answer(qtype uint16, rrs ...dns.RR) {
	m := new(dns.Msg)
	m.Answer = rrs
	f.answers[qtype] = m
}

type fakeResolvers struct {
	master     *fakeQuerier
	check      *fakeQuerier
	recursives *fakeQuerier
	parentAuth *fakeQuerier
	parentErr  error
	dnskeys    []uint16
	dnskeysErr error
}

func newFakeResolvers() *fakeResolvers {
	return &fakeResolvers{
		master:     newFakeQuerier("master"),
		check:      newFakeQuerier("secondary"),
		recursives: newFakeQuerier("recursives"),
		parentAuth: newFakeQuerier("parent"),
	}
}

func (f *fakeResolvers) Master() resolver.Querier {
	return f.master
}

func (f *fakeResolvers) CheckServer(local bool) resolver.Querier {
	if local {
		return f.master
	}

	return f.check
}

func (f *fakeResolvers) Recursives() resolver.Querier {
	return f.recursives
}

func (f *fakeResolvers) ParentAuth(_ context.Context, _ string) (resolver.Querier, error) {
	if f.parentErr != nil {
		return nil, f.parentErr
	}

	return f.parentAuth, nil
}

func (f *fakeResolvers) MasterDNSKEYs(_ context.Context, _ string) ([]uint16, error) {
	return f.dnskeys, f.dnskeysErr
}

type mockRegistrar struct {
	mock.Mock

	name string
}

func (m *mockRegistrar) Name() string {
	return m.name
}

func (m *mockRegistrar) SubmitDS(_ context.Context, zone string, args []model.DSArg) (*registrar.Result, error) {
	return resultOf(m.Called(zone, args))
}

func (m *mockRegistrar) RemoveAllDS(_ context.Context, zone string) (*registrar.Result, error) {
	return resultOf(m.Called(zone))
}

func (m *mockRegistrar) ListPending(_ context.Context, trackingID string) (*registrar.Result, error) {
	return resultOf(m.Called(trackingID))
}

func (m *mockRegistrar) DeleteResult(_ context.Context, trackingID string) error {
	return m.Called(trackingID).Error(0)
}

func resultOf(args mock.Arguments) (*registrar.Result, error) {
	res, _ := args.Get(0).(*registrar.Result)

	return res, args.Error(1)
}

type fakeDirectory map[string]registrar.Registrar

func (d fakeDirectory) Get(name string) (registrar.Registrar, error) {
	r, ok := d[name]
	if !ok {
		return nil, fmt.Errorf("%w '%s'", registrar.ErrUnknownRegistrar, name)
	}

	return r, nil
}

func rrsig(zone string, covered, tag uint16) dns.RR {
	return &dns.RRSIG{
		Hdr:         dns.RR_Header{Name: dns.Fqdn(zone), Rrtype: dns.TypeRRSIG, Class: dns.ClassINET, Ttl: 3600},
		TypeCovered: covered,
		Algorithm:   dns.ECDSAP256SHA256,
		KeyTag:      tag,
		SignerName:  dns.Fqdn(zone),
	}
}

func ds(zone string, tag uint16) dns.RR {
	return &dns.DS{
		Hdr:        dns.RR_Header{Name: dns.Fqdn(zone), Rrtype: dns.TypeDS, Class: dns.ClassINET, Ttl: 3600},
		KeyTag:     tag,
		Algorithm:  dns.ECDSAP256SHA256,
		DigestType: dns.SHA256,
		Digest:     "00",
	}
}

func fmtTag(tag uint16) string {
	return fmt.Sprintf("%05d", tag)
}
