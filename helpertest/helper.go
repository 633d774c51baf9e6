package helpertest

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/miekg/dns"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/gcustom"
	"github.com/onsi/gomega/types"
)

const (
	A      = dns.Type(dns.TypeA)
	AAAA   = dns.Type(dns.TypeAAAA)
	NS     = dns.Type(dns.TypeNS)
	SOA    = dns.Type(dns.TypeSOA)
	DS     = dns.Type(dns.TypeDS)
	DNSKEY = dns.Type(dns.TypeDNSKEY)
	RRSIG  = dns.Type(dns.TypeRRSIG)
)

// TestServer creates a temp http server serving all requests with the handler.
// The server is closed after the current test.
func TestServer(fn http.HandlerFunc) *httptest.Server {
	srv := httptest.NewServer(fn)

	ginkgo.DeferCleanup(srv.Close)

	return srv
}

// MustRR parses a resource record in presentation format and fails the test on error
func MustRR(s string) dns.RR {
	rr, err := dns.NewRR(s)
	gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

	return rr
}

func HaveReturnCode(code int) types.GomegaMatcher {
	return gcustom.MakeMatcher(func(m *dns.Msg) (bool, error) {
		return m.Rcode == code, nil
	}).WithTemplate(
		"Expected:\n{{.Actual}}\n{{.To}} have RCode:\n{{format .Data 1}}",
		fmt.Sprintf("%d (%s)", code, dns.RcodeToString[code]),
	)
}

// HaveDOFlag checks if the message requests DNSSEC records
func HaveDOFlag() types.GomegaMatcher {
	return gcustom.MakeMatcher(func(m *dns.Msg) (bool, error) {
		opt := m.IsEdns0()

		return opt != nil && opt.Do(), nil
	}).WithTemplate("Expected:\n{{.Actual}}\n{{.To}} have the DO bit set")
}

func toFirstRR(actual interface{}) (dns.RR, error) {
	switch i := actual.(type) {
	case *dns.Msg:
		return toFirstRR(i.Answer)

	case []dns.RR:
		if len(i) == 0 {
			return nil, fmt.Errorf("answer must not be empty")
		}

		if len(i) == 1 {
			return toFirstRR(i[0])
		}

		return nil, fmt.Errorf("supports only single RR in answer")
	case dns.RR:
		return i, nil
	default:
		return nil, fmt.Errorf("not supported type")
	}
}

// BeDNSRecord returns new dns matcher. For DS and DNSKEY records the answer is
// the key tag, for SOA records the primary name server.
func BeDNSRecord(domain string, dnsType dns.Type, answer string) types.GomegaMatcher {
	return &dnsRecordMatcher{
		domain:  domain,
		dnsType: dnsType,
		answer:  answer,
	}
}

type dnsRecordMatcher struct {
	domain  string
	dnsType dns.Type
	answer  string
}

func (matcher *dnsRecordMatcher) matchSingle(rr dns.RR) (success bool, err error) {
	if (rr.Header().Name != matcher.domain) ||
		(dns.Type(rr.Header().Rrtype) != matcher.dnsType) {
		return false, nil
	}

	switch v := rr.(type) {
	case *dns.A:
		return v.A.String() == matcher.answer, nil
	case *dns.AAAA:
		return v.AAAA.String() == matcher.answer, nil
	case *dns.NS:
		return v.Ns == matcher.answer, nil
	case *dns.SOA:
		return v.Ns == matcher.answer, nil
	case *dns.DS:
		return fmt.Sprintf("%d", v.KeyTag) == matcher.answer, nil
	case *dns.DNSKEY:
		return fmt.Sprintf("%d", v.KeyTag()) == matcher.answer, nil
	}

	return false, nil
}

// Match checks the DNS record
func (matcher *dnsRecordMatcher) Match(actual interface{}) (success bool, err error) {
	rr, err := toFirstRR(actual)
	if err != nil {
		return false, err
	}

	return matcher.matchSingle(rr)
}

// FailureMessage generates a failure message
func (matcher *dnsRecordMatcher) FailureMessage(actual interface{}) (message string) {
	return fmt.Sprintf("Expected\n\t%s\n to contain\n\t domain '%s', type '%s', answer '%s'",
		actual, matcher.domain, dns.TypeToString[uint16(matcher.dnsType)], matcher.answer)
}

// NegatedFailureMessage creates negated message
func (matcher *dnsRecordMatcher) NegatedFailureMessage(actual interface{}) (message string) {
	return fmt.Sprintf("Expected\n\t%s\n not to contain\n\t domain '%s', type '%s', answer '%s'",
		actual, matcher.domain, dns.TypeToString[uint16(matcher.dnsType)], matcher.answer)
}
