// Package metrics holds the Prometheus collectors for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics registers all collectors on a dedicated registry so tests
// can construct independent instances.
type Metrics struct {
	Registry *prometheus.Registry

	QuotePolls      prometheus.Counter
	QuotePollErrors prometheus.Counter
	FetchDur        *prometheus.HistogramVec // labels: source
	IndicatorDur    *prometheus.HistogramVec // labels: kind
	WSClients       prometheus.Gauge
	LLMCalls        prometheus.Counter
	LLMDur          prometheus.Histogram
}

// New registers and returns all metrics.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		QuotePolls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gujian_quote_polls_total",
			Help: "Total intraday quote poll ticks",
		}),
		QuotePollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gujian_quote_poll_errors_total",
			Help: "Quote poll ticks that failed",
		}),
		FetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gujian_fetch_duration_seconds",
			Help:    "Exchange fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		IndicatorDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gujian_indicator_compute_duration_seconds",
			Help:    "Indicator series compute latency",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}, []string{"kind"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gujian_ws_clients",
			Help: "Connected WebSocket quote-stream clients",
		}),
		LLMCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gujian_llm_calls_total",
			Help: "Total generative-AI API calls",
		}),
		LLMDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gujian_llm_call_duration_seconds",
			Help:    "Generative-AI API call latency",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),
	}

	m.Registry.MustRegister(
		m.QuotePolls,
		m.QuotePollErrors,
		m.FetchDur,
		m.IndicatorDur,
		m.WSClients,
		m.LLMCalls,
		m.LLMDur,
	)
	return m
}

// Handler serves the registry for the /metrics route.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
