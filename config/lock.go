package config

import "github.com/sirupsen/logrus"

// Lock configures the single instance lock around a run
type Lock struct {
	// File is the lock file, defaults to a file inside the root directory
	File string `yaml:"file"`
	// Redis is used instead of the file if an address is configured
	Redis Redis    `yaml:"redis"`
	Key   string   `yaml:"key" default:"dskm:run"`
	TTL   Duration `yaml:"ttl" default:"1h"`
}

// IsEnabled implements `config.Configurable`.
func (c *Lock) IsEnabled() bool {
	return true
}

// LogConfig implements `config.Configurable`.
func (c *Lock) LogConfig(logger *logrus.Entry) {
	if !c.Redis.IsEnabled() {
		logger.Infof("file: %s", c.File)

		return
	}

	logger.Infof("key: %s", c.Key)
	logger.Infof("ttl: %s", c.TTL)
	logger.Info("redis:")
	c.Redis.LogConfig(logger)
}
