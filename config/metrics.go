package config

import "github.com/sirupsen/logrus"

// Metrics configures the export of run metrics to a node exporter textfile
type Metrics struct {
	Textfile string `yaml:"textfile"`
}

// IsEnabled implements `config.Configurable`.
func (c *Metrics) IsEnabled() bool {
	return c.Textfile != ""
}

// LogConfig implements `config.Configurable`.
func (c *Metrics) LogConfig(logger *logrus.Entry) {
	logger.Infof("textfile: %s", c.Textfile)
}
