package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dashboard collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	cycles       prometheus.Counter
	cycleSeconds prometheus.Histogram
	rows         prometheus.Gauge
	matched      prometheus.Gauge
	loads        *prometheus.CounterVec
	clients      prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "candidash",
			Name:      "cycles_total",
			Help:      "Completed filter and aggregate cycles.",
		}),
		cycleSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "candidash",
			Name:      "cycle_duration_seconds",
			Help:      "Time spent filtering, aggregating and drawing.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "candidash",
			Name:      "table_rows",
			Help:      "Rows in the loaded table.",
		}),
		matched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "candidash",
			Name:      "matched_rows",
			Help:      "Rows matching the last filter.",
		}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "candidash",
			Name:      "loads_total",
			Help:      "Dataset loads by outcome.",
		}, []string{"outcome"}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "candidash",
			Name:      "ws_clients",
			Help:      "Connected websocket clients.",
		}),
	}
	m.reg.MustRegister(
		m.cycles, m.cycleSeconds, m.rows, m.matched, m.loads, m.clients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCycle matches dashboard.Config.OnCycle.
func (m *Metrics) ObserveCycle(took time.Duration, rows, matched int) {
	m.cycles.Inc()
	m.cycleSeconds.Observe(took.Seconds())
	m.rows.Set(float64(rows))
	m.matched.Set(float64(matched))
}

func (m *Metrics) observeLoad(err error) {
	if err != nil {
		m.loads.WithLabelValues("failure").Inc()
		return
	}
	m.loads.WithLabelValues("success").Inc()
}

func (m *Metrics) setClients(n int) { m.clients.Set(float64(n)) }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
