package metrics

import (
	"fmt"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/hashicorp/go-multierror"

	"github.com/dskm-project/dskm/evt"
	"github.com/dskm-project/dskm/model"
)

// RegisterEventListeners feeds the metrics from the events of the run
func (c *Collector) RegisterEventListeners(bus EventBus.Bus) error {
	var result error

	subscribe := func(topic string, fn interface{}) {
		if err := bus.Subscribe(topic, fn); err != nil {
			result = multierror.Append(result, fmt.Errorf("can't subscribe topic '%s': %w", topic, err))
		}
	}

	subscribe(evt.KeyCreated, func(_ string, kt model.KeyType, _ uint16) {
		c.keysCreated.WithLabelValues(kt.String()).Inc()
	})

	subscribe(evt.KeyDeleted, func(zone string, _ uint16) {
		c.keysDeleted.WithLabelValues(zone).Inc()
	})

	subscribe(evt.KeyStateChanged, func(zone string, kt model.KeyType, _ uint16, _, to int) {
		c.keyState.WithLabelValues(zone, kt.String()).Set(float64(to))
	})

	subscribe(evt.KeyStateTimeout, func(zone string, kt model.KeyType, _ uint16, _, _ int) {
		c.stateTimeouts.WithLabelValues(zone, kt.String()).Inc()
	})

	subscribe(evt.DSSubmitted, func(_, registrar string, _ []uint16) {
		c.dsSubmissions.WithLabelValues(registrar).Inc()
	})

	subscribe(evt.DSRemoved, func(_, registrar string) {
		c.dsRemovals.WithLabelValues(registrar).Inc()
	})

	subscribe(evt.ZoneProcessed, func(zone string, ksk, zsk int) {
		c.zoneAborted.WithLabelValues(zone).Set(0)
		c.keyState.WithLabelValues(zone, model.KeyTypeKSK.String()).Set(float64(ksk))
		c.keyState.WithLabelValues(zone, model.KeyTypeZSK.String()).Set(float64(zsk))
	})

	subscribe(evt.ZoneAborted, func(zone string, _ error) {
		c.zoneAborted.WithLabelValues(zone).Set(1)
	})

	subscribe(evt.ZoneValidated, func(zone string, ok bool) {
		if ok {
			c.zoneValidated.WithLabelValues(zone).Set(1)
		} else {
			c.zoneValidated.WithLabelValues(zone).Set(0)
		}
	})

	subscribe(evt.RunFinished, func(zones, aborted int) {
		c.zones.Set(float64(zones))
		c.abortedZones.Set(float64(aborted))
		c.lastRunSeconds.Set(float64(time.Now().Unix()))
	})

	return result
}
