package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the registry of one invocation. As the run is short lived, the values are not
// scraped but written to a file picked up by the node exporter's textfile collector.
type Collector struct {
	reg *prometheus.Registry

	buildInfo      *prometheus.GaugeVec
	keyState       *prometheus.GaugeVec
	stateTimeouts  *prometheus.CounterVec
	keysCreated    *prometheus.CounterVec
	keysDeleted    *prometheus.CounterVec
	dsSubmissions  *prometheus.CounterVec
	dsRemovals     *prometheus.CounterVec
	zoneAborted    *prometheus.GaugeVec
	zoneValidated  *prometheus.GaugeVec
	zones          prometheus.Gauge
	abortedZones   prometheus.Gauge
	lastRunSeconds prometheus.Gauge
}

// New creates a collector with all metrics registered
func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),

		buildInfo:      buildInfoGauge(),
		keyState:       keyStateGauge(),
		stateTimeouts:  stateTimeoutCount(),
		keysCreated:    keysCreatedCount(),
		keysDeleted:    keysDeletedCount(),
		dsSubmissions:  dsSubmissionCount(),
		dsRemovals:     dsRemovalCount(),
		zoneAborted:    zoneAbortedGauge(),
		zoneValidated:  zoneValidatedGauge(),
		zones:          zonesGauge(),
		abortedZones:   abortedZonesGauge(),
		lastRunSeconds: lastRunGauge(),
	}

	c.RegisterMetric(c.buildInfo)
	c.RegisterMetric(c.keyState)
	c.RegisterMetric(c.stateTimeouts)
	c.RegisterMetric(c.keysCreated)
	c.RegisterMetric(c.keysDeleted)
	c.RegisterMetric(c.dsSubmissions)
	c.RegisterMetric(c.dsRemovals)
	c.RegisterMetric(c.zoneAborted)
	c.RegisterMetric(c.zoneValidated)
	c.RegisterMetric(c.zones)
	c.RegisterMetric(c.abortedZones)
	c.RegisterMetric(c.lastRunSeconds)

	return c
}

// RegisterMetric registers prometheus collector
func (c *Collector) RegisterMetric(col prometheus.Collector) {
	_ = c.reg.Register(col)
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

// SetBuildInfo records version and build time of the binary
func (c *Collector) SetBuildInfo(version, buildTime string) {
	c.buildInfo.WithLabelValues(version, buildTime).Set(1)
}

// WriteToTextfile writes all metrics in the text exposition format. The file is
// written to a temporary file first and renamed, so a scrape never sees a partial file.
func (c *Collector) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.reg); err != nil {
		return fmt.Errorf("can't write metrics to '%s': %w", path, err)
	}

	return nil
}

func buildInfoGauge() *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dskm_build_info",
			Help: "Version number and build info",
		}, []string{"version", "build_time"},
	)
}

func keyStateGauge() *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dskm_key_state",
			Help: "Current state of the key track",
		}, []string{"zone", "type"},
	)
}

func stateTimeoutCount() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dskm_key_state_timeout_total",
			Help: "Number of key tracks waiting longer than their timeout",
		}, []string{"zone", "type"},
	)
}

func keysCreatedCount() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dskm_keys_created_total",
			Help: "Number of generated keys",
		}, []string{"type"},
	)
}

func keysDeletedCount() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dskm_keys_deleted_total",
			Help: "Number of key deletions, a wipe of all keys of a zone counts once",
		}, []string{"zone"},
	)
}

func dsSubmissionCount() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dskm_ds_submissions_total",
			Help: "Number of DS updates accepted by registrars",
		}, []string{"registrar"},
	)
}

func dsRemovalCount() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dskm_ds_removals_total",
			Help: "Number of DS retractions accepted by registrars",
		}, []string{"registrar"},
	)
}

func zoneAbortedGauge() *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dskm_zone_aborted",
			Help: "1 if processing of the zone was aborted in the last run",
		}, []string{"zone"},
	)
}

func zoneValidatedGauge() *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dskm_zone_validated",
			Help: "1 if a validating resolver authenticated the zone in the last run",
		}, []string{"zone"},
	)
}

func zonesGauge() prometheus.Gauge {
	return prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dskm_zones",
			Help: "Number of managed zones",
		},
	)
}

func abortedZonesGauge() prometheus.Gauge {
	return prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dskm_zones_aborted",
			Help: "Number of zones aborted in the last run",
		},
	)
}

func lastRunGauge() prometheus.Gauge {
	return prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dskm_last_run_timestamp_seconds",
			Help: "Timestamp of the last finished run",
		},
	)
}
