// Package metrics exports sensor read statistics in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dht11"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	reads       *prometheus.CounterVec
	temperature prometheus.Gauge
	humidity    prometheus.Gauge
	duration    prometheus.Histogram
	faulted     prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// New creates and registers the collectors. kinds pre-creates the result
// label values so every series is exported from startup.
func New(kinds []string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reads_total",
			Help:      "Sensor reads by result.",
		}, []string{"result"}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Last good temperature reading.",
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "humidity_percent",
			Help:      "Last good relative humidity reading.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "read_duration_seconds",
			Help:      "Time spent in a single sensor read.",
			Buckets:   []float64{0.02, 0.025, 0.03, 0.04, 0.05, 0.075, 0.1},
		}),
		faulted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_faulted",
			Help:      "1 while the sensor is considered faulty.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last good reading.",
		}),
	}

	m.registry.MustRegister(m.reads, m.temperature, m.humidity, m.duration, m.faulted, m.lastSuccess)

	m.reads.WithLabelValues("ok")
	for _, k := range kinds {
		m.reads.WithLabelValues(k)
	}
	return m
}

// ObserveRead records one read. result is "ok" or the failure kind.
func (m *Metrics) ObserveRead(result string, took time.Duration) {
	m.reads.With(prometheus.Labels{"result": result}).Inc()
	m.duration.Observe(took.Seconds())
}

// SetReading records a good reading taken at t.
func (m *Metrics) SetReading(temperature, humidity uint8, t time.Time) {
	m.temperature.Set(float64(temperature))
	m.humidity.Set(float64(humidity))
	m.lastSuccess.Set(float64(t.Unix()))
}

// SetFaulted records the fault state.
func (m *Metrics) SetFaulted(faulted bool) {
	if faulted {
		m.faulted.Set(1)
	} else {
		m.faulted.Set(0)
	}
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
