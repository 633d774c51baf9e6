package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/dskm-project/dskm/config"
	"github.com/dskm-project/dskm/log"
	"github.com/dskm-project/dskm/util"
)

const (
	edns0BufferSize = 4096
	retryDelay      = 100 * time.Millisecond
)

var (
	// ErrNoAnswer is returned if the name exists but has no records of the queried type
	ErrNoAnswer = errors.New("no answer")

	// ErrNXDomain is returned if the queried name does not exist
	ErrNXDomain = errors.New("domain does not exist")

	// ErrTimeout is returned if no server answered in time
	ErrTimeout = errors.New("timeout")
)

// Querier looks up DNS records
type Querier interface {
	fmt.Stringer

	// Query returns the answer of the first server answering NOERROR or NXDOMAIN.
	// With ErrNoAnswer the response is returned, too.
	Query(ctx context.Context, name string, qtype uint16, opts ...QueryOption) (*dns.Msg, error)
}

type queryOptions struct {
	dnssec bool
	tcp    bool
}

// QueryOption changes how a single query is sent
type QueryOption func(*queryOptions)

// WithDNSSEC sets the DO bit, so signatures are included in the answer
func WithDNSSEC() QueryOption {
	return func(o *queryOptions) {
		o.dnssec = true
	}
}

// WithTCP sends the query over TCP instead of trying UDP first
func WithTCP() QueryOption {
	return func(o *queryOptions) {
		o.tcp = true
	}
}

// Client sends queries to a list of name servers, the next server is asked if one fails
type Client struct {
	servers              []string
	tcpClient, udpClient *dns.Client
	attempts             uint
}

// NewClient creates a client for the servers
func NewClient(servers []config.NameServer, timeout time.Duration, attempts uint) *Client {
	addrs := make([]string, 0, len(servers))
	for _, s := range servers {
		addrs = append(addrs, s.Address())
	}

	return &Client{
		servers: addrs,
		tcpClient: &dns.Client{
			Net:     "tcp",
			Timeout: timeout,
		},
		udpClient: &dns.Client{
			Net:     "udp",
			Timeout: timeout,
			UDPSize: edns0BufferSize,
		},
		attempts: max(attempts, 1),
	}
}

func (c *Client) String() string {
	return fmt.Sprintf("resolver '%s'", strings.Join(c.servers, ", "))
}

// Query implements `Querier`.
func (c *Client) Query(ctx context.Context, name string, qtype uint16, opts ...QueryOption) (*dns.Msg, error) {
	o := queryOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	logger := log.FromCtx(ctx).WithField("prefix", "resolver")

	req := util.NewMsgWithQuestion(name, qtype)
	req.RecursionDesired = true

	if o.dnssec {
		req.SetEdns0(edns0BufferSize, true)
	}

	qname := dns.Fqdn(name)
	qtypeName := dns.TypeToString[qtype]

	lastErr := fmt.Errorf("no name server configured to query %s %s", qname, qtypeName)

	for _, server := range c.servers {
		resp, rtt, err := c.exchange(ctx, req, server, o.tcp)
		if err != nil {
			logger.WithField("server", server).Debugf("query %s %s failed: %s", qname, qtypeName, err)

			lastErr = err

			continue
		}

		logger.WithFields(logrus.Fields{
			"answer":           util.AnswerToString(resp.Answer),
			"return_code":      dns.RcodeToString[resp.Rcode],
			"server":           server,
			"response_time_ms": rtt.Milliseconds(),
		}).Debugf("received response for %s %s", qname, qtypeName)

		switch resp.Rcode {
		case dns.RcodeSuccess:
			if !hasType(resp.Answer, qtype) {
				return resp, fmt.Errorf("%w: %s %s at %s", ErrNoAnswer, qname, qtypeName, server)
			}

			return resp, nil
		case dns.RcodeNameError:
			return resp, fmt.Errorf("%w: %s at %s", ErrNXDomain, qname, server)
		default:
			lastErr = fmt.Errorf("%s answered %s for %s %s", server, dns.RcodeToString[resp.Rcode], qname, qtypeName)
		}
	}

	return nil, lastErr
}

func (c *Client) exchange(
	ctx context.Context, req *dns.Msg, server string, forceTCP bool,
) (resp *dns.Msg, rtt time.Duration, err error) {
	err = retry.Do(
		func() error {
			var err error

			resp, rtt, err = c.exchangeOnce(ctx, req, server, forceTCP)

			return err
		},
		retry.Attempts(c.attempts),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(retryDelay),
		retry.RetryIf(isTimeout),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)

	if err != nil {
		if isTimeout(err) {
			return nil, 0, fmt.Errorf("%w: %s did not answer: %w", ErrTimeout, server, err)
		}

		return nil, 0, fmt.Errorf("can't query %s: %w", server, err)
	}

	return resp, rtt, nil
}

func (c *Client) exchangeOnce(
	ctx context.Context, req *dns.Msg, server string, forceTCP bool,
) (*dns.Msg, time.Duration, error) {
	if forceTCP {
		return c.tcpClient.ExchangeContext(ctx, req, server)
	}

	resp, rtt, err := c.udpClient.ExchangeContext(ctx, req, server)
	if err == nil && resp.Truncated {
		// answer doesn't fit into a datagram
		return c.tcpClient.ExchangeContext(ctx, req, server)
	}

	return resp, rtt, err
}

func isTimeout(err error) bool {
	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

func hasType(rrs []dns.RR, qtype uint16) bool {
	for _, rr := range rrs {
		if rr.Header().Rrtype == qtype {
			return true
		}
	}

	return false
}

// KeyTags returns the tags of all DNSKEY records
func KeyTags(rrs []dns.RR) []uint16 {
	var tags []uint16

	for _, rr := range rrs {
		if key, ok := rr.(*dns.DNSKEY); ok {
			tags = append(tags, key.KeyTag())
		}
	}

	return tags
}

// HasSignature returns true if one of the records is a signature of the covered type made by the key
func HasSignature(rrs []dns.RR, covered, keyTag uint16) bool {
	for _, rr := range rrs {
		if sig, ok := rr.(*dns.RRSIG); ok && sig.TypeCovered == covered && sig.KeyTag == keyTag {
			return true
		}
	}

	return false
}

// HasDS returns true if one of the records is a DS referring to the key
func HasDS(rrs []dns.RR, keyTag uint16) bool {
	for _, rr := range rrs {
		if ds, ok := rr.(*dns.DS); ok && ds.KeyTag == keyTag {
			return true
		}
	}

	return false
}
