package config

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/dskm-project/dskm/model"
)

// Algorithm is a DNSSEC key algorithm, configured by its mnemonic
type Algorithm uint8

// String implements `fmt.Stringer`
func (a Algorithm) String() string {
	if s, ok := dns.AlgorithmToString[uint8(a)]; ok {
		return s
	}

	return fmt.Sprintf("ALG%d", uint8(a))
}

// UnmarshalText implements `encoding.TextUnmarshaler`.
func (a *Algorithm) UnmarshalText(data []byte) error {
	s := strings.ToUpper(strings.TrimSpace(string(data)))

	alg, ok := dns.StringToAlgorithm[s]
	if !ok {
		return fmt.Errorf("unknown DNSSEC algorithm '%s'", string(data))
	}

	*a = Algorithm(alg)

	return nil
}

// Keys configures the generation of new keys
type Keys struct {
	AlgorithmNSEC  Algorithm          `yaml:"algorithmNSEC" default:"RSASHA256"`
	AlgorithmNSEC3 Algorithm          `yaml:"algorithmNSEC3" default:"RSASHA256"`
	BitsKSK        int                `yaml:"bitsKSK" default:"2048"`
	BitsZSK        int                `yaml:"bitsZSK" default:"1024"`
	TTL            uint32             `yaml:"ttl" default:"86400"`
	DigestTypes    []model.DigestType `yaml:"digestTypes" default:"[\"SHA256\"]"`
}

// AlgorithmFor returns the algorithm of new keys of zones signed with the method
func (c *Keys) AlgorithmFor(m model.Method) uint8 {
	if m == model.MethodNSEC3 {
		return uint8(c.AlgorithmNSEC3)
	}

	return uint8(c.AlgorithmNSEC)
}

// BitsFor returns the key size for the key type, elliptic curve algorithms have a fixed size
func (c *Keys) BitsFor(kt model.KeyType, alg uint8) int {
	switch alg {
	case dns.ECDSAP256SHA256, dns.ED25519:
		return 256
	case dns.ECDSAP384SHA384:
		return 384
	}

	if kt == model.KeyTypeKSK {
		return c.BitsKSK
	}

	return c.BitsZSK
}

func (c *Keys) validate() error {
	switch uint8(c.AlgorithmNSEC3) {
	case dns.RSASHA1, dns.DSA, dns.RSAMD5:
		return fmt.Errorf("keys.algorithmNSEC3: %s can't be used with NSEC3", c.AlgorithmNSEC3)
	}

	return nil
}

// IsEnabled implements `config.Configurable`.
func (c *Keys) IsEnabled() bool {
	return true
}

// LogConfig implements `config.Configurable`.
func (c *Keys) LogConfig(logger *logrus.Entry) {
	logger.Infof("algorithmNSEC: %s", c.AlgorithmNSEC)
	logger.Infof("algorithmNSEC3: %s", c.AlgorithmNSEC3)
	logger.Infof("bitsKSK: %d", c.BitsKSK)
	logger.Infof("bitsZSK: %d", c.BitsZSK)
	logger.Infof("ttl: %d", c.TTL)
	logger.Infof("digestTypes: %v", c.DigestTypes)
}
