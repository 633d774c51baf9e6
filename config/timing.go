package config

import (
	"github.com/sirupsen/logrus"

	"github.com/dskm-project/dskm/model"
)

// Timing holds the cascaded key timing intervals (in days) used for zones without own timing
type Timing struct {
	KSK model.TimingParams `yaml:"ksk"`
	ZSK model.TimingParams `yaml:"zsk"`
}

// SetDefaults implements `defaults.Setter`.
// Key types without any configured interval get the production schedule.
func (c *Timing) SetDefaults() {
	if c.KSK == (model.TimingParams{}) {
		c.KSK = model.TimingParams{PublishToActive: 7, ActiveToInactive: 360, InactiveToDelete: 35, Overlap: 7}
	}

	if c.ZSK == (model.TimingParams{}) {
		c.ZSK = model.TimingParams{PublishToActive: 4, ActiveToInactive: 60, InactiveToDelete: 35, Overlap: 1}
	}
}

// For returns the intervals of the key type
func (c *Timing) For(kt model.KeyType) model.TimingParams {
	return c.KeyTimings().For(kt)
}

// KeyTimings returns the intervals in the form embedded into zone configuration documents
func (c *Timing) KeyTimings() *model.KeyTimings {
	return &model.KeyTimings{KSK: c.KSK, ZSK: c.ZSK}
}

// IsEnabled implements `config.Configurable`.
func (c *Timing) IsEnabled() bool {
	return true
}

// LogConfig implements `config.Configurable`.
func (c *Timing) LogConfig(logger *logrus.Entry) {
	for _, kt := range []model.KeyType{model.KeyTypeKSK, model.KeyTypeZSK} {
		p := c.For(kt)

		logger.Infof("%s: pa = %dd, ai = %dd, id = %dd, overlap = %dd",
			kt.Lower(), p.PublishToActive, p.ActiveToInactive, p.InactiveToDelete, p.Overlap)
	}
}
