package config

import (
	"github.com/sirupsen/logrus"
)

// Journal configuration for the state transition journal
type Journal struct {
	Target           string      `yaml:"target"`
	Type             JournalType `yaml:"type" default:"none"`
	RetentionDays    uint64      `yaml:"retentionDays"`
	CreationAttempts int         `yaml:"creationAttempts" default:"3"`
	CreationCooldown Duration    `yaml:"creationCooldown" default:"2s"`
}

// IsEnabled implements `config.Configurable`.
func (c *Journal) IsEnabled() bool {
	return c.Type != JournalTypeNone
}

// LogConfig implements `config.Configurable`.
func (c *Journal) LogConfig(logger *logrus.Entry) {
	logger.Infof("type: %q", c.Type)
	logger.Infof("target: %q", c.Target)
	logger.Infof("retentionDays: %d", c.RetentionDays)
	logger.Debugf("creationAttempts: %d", c.CreationAttempts)
	logger.Debugf("creationCooldown: %s", c.CreationCooldown)
}
