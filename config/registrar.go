package config

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// Registrar configures a named registrar zones can be bound to
type Registrar struct {
	Type         RegistrarType `yaml:"type" default:"dmapi"`
	URL          string        `yaml:"url"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	PollInterval Duration      `yaml:"pollInterval" default:"5s"`
	Timeout      Duration      `yaml:"timeout" default:"10m"`
	// Recipients receive the hand over mails of registrars of type mail
	Recipients []string `yaml:"recipients"`
}

func (c *Registrar) validate() error {
	switch c.Type {
	case RegistrarTypeDmapi:
		if c.URL == "" {
			return errors.New("url must be set")
		}

		if c.Username == "" {
			return errors.New("username must be set")
		}

		if !c.PollInterval.IsAboveZero() {
			return errors.New("pollInterval must be greater than zero")
		}
	case RegistrarTypeMail:
		if len(c.Recipients) == 0 {
			return errors.New("recipients must not be empty")
		}
	}

	return nil
}

// IsEnabled implements `config.Configurable`.
func (c *Registrar) IsEnabled() bool {
	return true
}

// LogConfig implements `config.Configurable`.
func (c *Registrar) LogConfig(logger *logrus.Entry) {
	logger.Infof("type: %s", c.Type)

	switch c.Type {
	case RegistrarTypeDmapi:
		logger.Infof("url: %s", c.URL)
		logger.Infof("username: %s", c.Username)
		logger.Infof("password: %s", obfuscatePassword(c.Password))
		logger.Infof("pollInterval: %s", c.PollInterval)
		logger.Infof("timeout: %s", c.Timeout)
	case RegistrarTypeMail:
		logger.Infof("recipients: %v", c.Recipients)
	}
}
