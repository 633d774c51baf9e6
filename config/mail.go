package config

import "github.com/sirupsen/logrus"

// Mail configures the SMTP relay used for run summaries and DS hand over mails
type Mail struct {
	Host       string   `yaml:"host"`
	Port       int      `yaml:"port" default:"25"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	Sender     string   `yaml:"sender" default:"hostmaster@localhost"`
	Recipients []string `yaml:"recipients"`
}

// IsEnabled implements `config.Configurable`.
func (c *Mail) IsEnabled() bool {
	return c.Host != "" && len(c.Recipients) > 0
}

// LogConfig implements `config.Configurable`.
func (c *Mail) LogConfig(logger *logrus.Entry) {
	logger.Infof("host: %s:%d", c.Host, c.Port)
	logger.Infof("username: %s", c.Username)
	logger.Infof("password: %s", obfuscatePassword(c.Password))
	logger.Infof("sender: %s", c.Sender)
	logger.Infof("recipients: %v", c.Recipients)
}
