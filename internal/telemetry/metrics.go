package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vinodismyname/edamcp/internal/eda"
)

// Metrics holds the server's Prometheus collectors on a private registry.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	analyses  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	toolCalls *prometheus.CounterVec
	sessions  prometheus.Gauge
}

// NewMetrics registers the analysis, tool and runtime collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eda_analyses_total",
				Help: "Analyses run, by backend, analysis type and outcome code",
			},
			[]string{"backend", "analysis_type", "status"}, // status: ok or an error code
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eda_analysis_duration_seconds",
				Help:    "Analysis latency in seconds, loading included",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"backend", "analysis_type"},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eda_tool_calls_total",
				Help: "MCP tool calls served",
			},
			[]string{"tool"},
		),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eda_active_sessions",
			Help: "Currently registered MCP client sessions",
		}),
	}
	m.registry.MustRegister(
		m.analyses, m.duration, m.toolCalls, m.sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAnalysis records one finished analysis.
func (m *Metrics) ObserveAnalysis(backend string, t eda.AnalysisType, status string, d time.Duration) {
	if m == nil {
		return
	}
	typ := string(t)
	if !t.Valid() {
		typ = "invalid"
	}
	m.analyses.WithLabelValues(backend, typ, status).Inc()
	m.duration.WithLabelValues(backend, typ).Observe(d.Seconds())
}

func (m *Metrics) toolCall(name string) {
	if m != nil {
		m.toolCalls.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) sessionDelta(d float64) {
	if m != nil {
		m.sessions.Add(d)
	}
}

// Instrument wraps b so every Analyze call is counted and timed.
func (m *Metrics) Instrument(b eda.Backend) eda.Backend {
	if m == nil || b == nil {
		return b
	}
	return &instrumented{Backend: b, metrics: m}
}

type instrumented struct {
	eda.Backend
	metrics *Metrics
}

func (i *instrumented) Analyze(ctx context.Context, req eda.Request) (*eda.Report, error) {
	start := time.Now()
	rep, err := i.Backend.Analyze(ctx, req)
	status := "ok"
	if err != nil {
		code, _ := eda.Classify(err)
		status = string(code)
	}
	i.metrics.ObserveAnalysis(i.Name(), req.Type, status, time.Since(start))
	return rep, err
}
