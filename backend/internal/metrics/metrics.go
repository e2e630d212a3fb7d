// Package metrics exposes Prometheus collectors for the irrigation pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"irrigation-monitor/backend/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "irrigation"

// Drop reasons used as label values.
const (
	DropMalformed  = "malformed"
	DropIncomplete = "incomplete"
	DropStore      = "store"
	DropQueueFull  = "queue_full"
)

// Metrics groups every collector the service updates.
type Metrics struct {
	registry *prometheus.Registry

	readingsStored  *prometheus.CounterVec
	messagesDropped *prometheus.CounterVec
	weatherLookups  *prometheus.CounterVec
	pumpCommands    *prometheus.CounterVec
	pumpOn          prometheus.Gauge
	queueDepth      prometheus.Gauge
}

// New creates a dedicated registry with process and Go collectors plus the service collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		readingsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_stored_total",
			Help:      "Readings appended to the store, by transport.",
		}, []string{"transport"}),
		messagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Inbound sensor messages discarded, by reason.",
		}, []string{"reason"}),
		weatherLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_lookups_total",
			Help:      "Rainfall enrichment attempts, by outcome.",
		}, []string{"outcome"}),
		pumpCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pump_commands_total",
			Help:      "Manual irrigation commands, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		pumpOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pump_on",
			Help:      "1 when the server believes the pump is ON.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_queue_depth",
			Help:      "Broker messages waiting for the ingestion consumer.",
		}),
	}

	buildInfo := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_info",
		Help:        "Build metadata of the running binary.",
		ConstLabels: utils.GetBuildInfo(),
	})
	buildInfo.Set(1)

	reg.MustRegister(m.readingsStored, m.messagesDropped, m.weatherLookups, m.pumpCommands, m.pumpOn, m.queueDepth, buildInfo)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ReadingStored(transport string) {
	if m == nil {
		return
	}

	m.readingsStored.WithLabelValues(transport).Inc()
}

func (m *Metrics) MessageDropped(reason string) {
	if m == nil {
		return
	}

	m.messagesDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) WeatherLookup(ok bool) {
	if m == nil {
		return
	}

	outcome := "ok"
	if !ok {
		outcome = "fallback"
	}

	m.weatherLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PumpCommand(mode string, ok bool) {
	if m == nil {
		return
	}

	outcome := "ok"
	if !ok {
		outcome = "error"
	}

	m.pumpCommands.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) PumpOn(on bool) {
	if m == nil {
		return
	}

	if on {
		m.pumpOn.Set(1)
	} else {
		m.pumpOn.Set(0)
	}
}

func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}

	m.queueDepth.Set(float64(n))
}
