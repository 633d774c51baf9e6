package config

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const defaultDNSPort = 53

var validDomain = regexp.MustCompile(
	`^(([a-zA-Z0-9]|[a-zA-Z0-9][a-zA-Z0-9\-]*[a-zA-Z0-9])\.)*([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9\-]*[A-Za-z0-9])$`)

// NameServer is the address of a DNS server
type NameServer struct {
	Host string
	Port uint16
}

// IsDefault returns true if n is the default value
func (n *NameServer) IsDefault() bool {
	return *n == NameServer{}
}

// Address returns host and port in the form accepted by net.Dial
func (n NameServer) Address() string {
	return net.JoinHostPort(n.Host, strconv.Itoa(int(n.Port)))
}

// String returns the string representation of n
func (n NameServer) String() string {
	if n.IsDefault() {
		return "no name server"
	}

	if n.Port == defaultDNSPort {
		return n.Host
	}

	return n.Address()
}

// UnmarshalText implements `encoding.TextUnmarshaler`.
func (n *NameServer) UnmarshalText(data []byte) error {
	s := string(data)

	ns, err := ParseNameServer(s)
	if err != nil {
		return fmt.Errorf("can't convert name server '%s': %w", s, err)
	}

	*n = ns

	return nil
}

// ParseNameServer creates new NameServer from passed string in format host[:port]
func ParseNameServer(s string) (NameServer, error) {
	var port uint16

	s = strings.TrimSpace(s)

	host, portString, err := net.SplitHostPort(s)

	// string contains host:port
	if err == nil {
		p, err := ConvertPort(portString)
		if err != nil {
			return NameServer{}, fmt.Errorf("can't convert port to number (1 - 65535) %w", err)
		}

		port = p
	} else {
		// only host, use default port
		host = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		port = defaultDNSPort
	}

	// validate hostname or ip
	if ip := net.ParseIP(host); ip == nil {
		if !validDomain.MatchString(host) {
			return NameServer{}, fmt.Errorf("wrong host name '%s'", host)
		}
	}

	return NameServer{Host: host, Port: port}, nil
}

// ConvertPort converts string representation into a valid port (0 - 65535)
func ConvertPort(in string) (uint16, error) {
	const (
		base    = 10
		bitSize = 16
	)

	p, err := strconv.ParseUint(strings.TrimSpace(in), base, bitSize)
	if err != nil {
		return 0, err
	}

	return uint16(p), nil
}

// Servers are the name servers consulted while checking the state of the zones
type Servers struct {
	// Master is the hidden master serving the signed zones
	Master []NameServer `yaml:"master" default:"[\"127.0.0.1\"]"`
	// PublicSecondary is checked for signatures of zones with an external registrar
	PublicSecondary NameServer `yaml:"publicSecondary"`
	// ExternalRecursives are validating resolvers used to verify the chain of trust
	ExternalRecursives []NameServer `yaml:"externalRecursives" default:"[\"9.9.9.9\", \"149.112.112.112\"]"`
	Timeout            Duration     `yaml:"timeout" default:"10s"`
	// Attempts is the number of tries per name server if a query times out
	Attempts uint `yaml:"attempts" default:"2"`
	// CacheSize bounds the per-run cache of resolvers bound to authoritative name servers of parents
	CacheSize int `yaml:"cacheSize" default:"64"`
}

// CheckServer returns the server whose answers decide if a key signs the zone
func (c *Servers) CheckServer(localRegistrar bool) NameServer {
	if localRegistrar || c.PublicSecondary.IsDefault() {
		return c.Master[0]
	}

	return c.PublicSecondary
}

// IsEnabled implements `config.Configurable`.
func (c *Servers) IsEnabled() bool {
	return true
}

// LogConfig implements `config.Configurable`.
func (c *Servers) LogConfig(logger *logrus.Entry) {
	logger.Info("master:")

	for _, ns := range c.Master {
		logger.Infof("  - %s", ns)
	}

	logger.Infof("publicSecondary: %s", c.PublicSecondary)
	logger.Info("externalRecursives:")

	for _, ns := range c.ExternalRecursives {
		logger.Infof("  - %s", ns)
	}

	logger.Infof("timeout: %s", c.Timeout)
	logger.Infof("attempts: %d", c.Attempts)
	logger.Infof("cacheSize: %d", c.CacheSize)
}
