//go:generate go run github.com/abice/go-enum -f=$GOFILE --marshal --names
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/creasty/defaults"
	"github.com/hashicorp/go-multierror"
	"github.com/knadh/koanf"
	"github.com/sirupsen/logrus"

	"github.com/dskm-project/dskm/log"
	"github.com/dskm-project/dskm/model"
)

const (
	// RegistrarLocal is the binding of zones whose parent is maintained on this host (or not at all)
	RegistrarLocal = "Local"
	// RegistrarByHand is the binding of zones whose DS are handed over to the parent operator by mail
	RegistrarByHand = "by hand"

	// LockFileName is the default name of the run lock inside the root directory
	LockFileName = ".dskm.lock"
)

// JournalType type of the transition journal ENUM(
// none // use logger as fallback
// console // use logger as fallback
// csv // CSV file
// mysql // MySQL or MariaDB database
// postgresql // PostgreSQL database
// sqlite // SQLite database file
// )
type JournalType int16

// RegistrarType is the protocol used to talk to a named registrar ENUM(
// dmapi // domain management API over HTTPS (key value responses)
// mail // hand over DS changes by mail to the registrar's recipients
// )
type RegistrarType int16

// Config main configuration
type Config struct {
	// Root is the directory holding one sub directory per managed zone
	Root       string               `yaml:"root" default:"/var/named/master/signed"`
	Log        log.Config           `yaml:"log"`
	Servers    Servers              `yaml:"servers"`
	Timing     Timing               `yaml:"timing"`
	Schedule   Schedule             `yaml:"schedule"`
	Keys       Keys                 `yaml:"keys"`
	Registrars map[string]Registrar `yaml:"registrars"`
	Mail       Mail                 `yaml:"mail"`
	Journal    Journal              `yaml:"journal"`
	Lock       Lock                 `yaml:"lock"`
	Metrics    Metrics              `yaml:"metrics"`
}

// Configurable is implemented by all config sections which can log their values
type Configurable interface {
	// IsEnabled returns true when the section's component should be used.
	IsEnabled() bool

	// LogConfig logs the section's values.
	LogConfig(*logrus.Entry)
}

// Schedule describes how often the run is invoked and how long a state may wait before a warning
type Schedule struct {
	RunsPerDay         int `yaml:"runsPerDay" default:"24"`
	ShortTimeoutHours  int `yaml:"shortTimeoutHours" default:"5"`
	PrepublishAddition int `yaml:"prepublishAddition" default:"10"`
}

// IsEnabled implements `config.Configurable`.
func (c *Schedule) IsEnabled() bool {
	return true
}

// LogConfig implements `config.Configurable`.
func (c *Schedule) LogConfig(logger *logrus.Entry) {
	logger.Infof("runsPerDay: %d", c.RunsPerDay)
	logger.Infof("shortTimeoutHours: %d", c.ShortTimeoutHours)
	logger.Infof("prepublishAddition: %d", c.PrepublishAddition)
}

// ShortTimeoutSeconds returns the short grace period in seconds
func (c *Schedule) ShortTimeoutSeconds() int64 {
	return int64(c.ShortTimeoutHours) * 3600
}

// DefaultConfig returns a configuration with all default values set
func DefaultConfig() (*Config, error) {
	cfg := new(Config)

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("can't apply default values: %w", err)
	}

	return cfg, nil
}

// LoadConfig creates new config from YAML file or a directory containing YAML files.
// Values from the environment (prefixed with DSKM_) override the file.
func LoadConfig(path string, mandatory bool) (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path != "" {
		fs, err := os.Stat(path)

		switch {
		case err == nil && fs.IsDir():
			err = loadDir(path, k)
		case err == nil:
			err = loadFile(k, path)
		case errors.Is(err, os.ErrNotExist) && !mandatory:
			// config file is optional, defaults and environment are used
			err = nil
		}

		if err != nil {
			return nil, fmt.Errorf("can't read config file(s) '%s': %w", path, err)
		}
	}

	if err := loadEnvironment(k); err != nil {
		return nil, fmt.Errorf("can't read environment: %w", err)
	}

	if err := unmarshalKoanf(k, cfg); err != nil {
		return nil, fmt.Errorf("wrong file structure: %w", err)
	}

	if err := cfg.setRegistrarDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) setRegistrarDefaults() error {
	for name, r := range cfg.Registrars {
		if err := defaults.Set(&r); err != nil {
			return fmt.Errorf("can't apply default values of registrar '%s': %w", name, err)
		}

		cfg.Registrars[name] = r
	}

	return nil
}

// Validate checks all values which would make processing of any zone impossible
func (cfg *Config) Validate() error {
	var result error

	if cfg.Root == "" {
		result = multierror.Append(result, errors.New("root must not be empty"))
	}

	for _, kt := range []model.KeyType{model.KeyTypeKSK, model.KeyTypeZSK} {
		if err := cfg.Timing.For(kt).Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("timing.%s: %w", kt.Lower(), err))
		}
	}

	if cfg.Schedule.RunsPerDay < 1 {
		result = multierror.Append(result, fmt.Errorf("schedule.runsPerDay must be at least 1 (%d)",
			cfg.Schedule.RunsPerDay))
	}

	if len(cfg.Servers.Master) == 0 {
		result = multierror.Append(result, errors.New("servers.master must contain at least one name server"))
	}

	if cfg.Servers.Attempts < 1 {
		result = multierror.Append(result, errors.New("servers.attempts must be at least 1"))
	}

	if len(cfg.Keys.DigestTypes) == 0 {
		result = multierror.Append(result, errors.New("keys.digestTypes must contain at least one digest type"))
	}

	if err := cfg.Keys.validate(); err != nil {
		result = multierror.Append(result, err)
	}

	for name, r := range cfg.Registrars {
		if name == RegistrarLocal || name == RegistrarByHand {
			result = multierror.Append(result, fmt.Errorf("registrar name '%s' is reserved", name))
		}

		if err := r.validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("registrars.%s: %w", name, err))
		}
	}

	return result
}

// IsKnownRegistrar returns true for the built-in bindings and all configured registrars
func (cfg *Config) IsKnownRegistrar(name string) bool {
	if name == RegistrarLocal || name == RegistrarByHand {
		return true
	}

	_, ok := cfg.Registrars[name]

	return ok
}

// LockFile returns the path of the run lock file
func (cfg *Config) LockFile() string {
	if cfg.Lock.File != "" {
		return cfg.Lock.File
	}

	return filepath.Join(cfg.Root, LockFileName)
}

// LogConfig logs all configuration values
func (cfg *Config) LogConfig(logger *logrus.Entry) {
	logger.Infof("root: %s", cfg.Root)

	logSection(logger, "servers", &cfg.Servers)
	logSection(logger, "timing", &cfg.Timing)
	logSection(logger, "schedule", &cfg.Schedule)
	logSection(logger, "keys", &cfg.Keys)

	for name, r := range cfg.Registrars {
		logSection(logger, "registrar "+name, &r)
	}

	logSection(logger, "mail", &cfg.Mail)
	logSection(logger, "journal", &cfg.Journal)
	logSection(logger, "lock", &cfg.Lock)
	logSection(logger, "metrics", &cfg.Metrics)
}

func logSection(logger *logrus.Entry, name string, c Configurable) {
	if !c.IsEnabled() {
		logger.Debugf("%s: disabled", name)

		return
	}

	logger.Infof("%s:", name)
	c.LogConfig(logger.WithField("prefix", name))
}
