package idivc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "idivc"

// Metrics collects the counters of one run. They are exported once, at the
// end of the run, as a node_exporter textfile.
type Metrics struct {
	registry *prometheus.Registry

	eventsRead      prometheus.Counter
	eventsWritten   prometheus.Counter
	emptyRegions    *prometheus.CounterVec
	calibrationRows *prometheus.CounterVec
	containerSwitch prometheus.Counter
	runDuration     prometheus.Gauge
	calibratedPMTs  prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		eventsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_read_total",
			Help:      "Raw events read from the input files.",
		}),
		eventsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_written_total",
			Help:      "Reduced events written to the output file.",
		}),
		emptyRegions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "empty_regions_total",
			Help:      "Reduced events without any valid hit in a region.",
		}, []string{"region"}),
		calibrationRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "calibration_rows_total",
			Help:      "Calibration records by acceptance outcome.",
		}, []string{"outcome"}),
		containerSwitch: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "container_switches_total",
			Help:      "Input files activated by the sequential reader.",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the event loop.",
		}),
		calibratedPMTs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "calibrated_sensors",
			Help:      "Sensors with an accepted calibration offset.",
		}),
	}
	m.registry.MustRegister(
		m.eventsRead,
		m.eventsWritten,
		m.emptyRegions,
		m.calibrationRows,
		m.containerSwitch,
		m.runDuration,
		m.calibratedPMTs,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveCalibration(stats CalibrationStats) {
	m.calibrationRows.WithLabelValues("accepted").Add(float64(stats.Accepted))
	m.calibrationRows.WithLabelValues("zero_value").Add(float64(stats.ZeroValue))
	m.calibrationRows.WithLabelValues("not_fit").Add(float64(stats.NotFit))
	m.calibrationRows.WithLabelValues("poor_fit").Add(float64(stats.PoorFit))
	m.calibratedPMTs.Set(float64(stats.Accepted))
}

func (m *Metrics) observeEvent(out ReducedEvent) {
	m.eventsRead.Inc()
	if out.FirstIDPMT == NoHit {
		m.emptyRegions.WithLabelValues(RegionID).Inc()
	}
	if out.FirstIVPMT == NoHit {
		m.emptyRegions.WithLabelValues(RegionIV).Inc()
	}
}

func (m *Metrics) observeWrite() {
	m.eventsWritten.Inc()
}

func (m *Metrics) observeRun(switches int, elapsed time.Duration) {
	m.containerSwitch.Add(float64(switches))
	m.runDuration.Set(elapsed.Seconds())
}

// WriteTextfile dumps every metric to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
