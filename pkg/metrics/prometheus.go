package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	stageLatency  *prometheus.HistogramVec
	errorsTotal   *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	upstreamCalls *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		stageLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockscope_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockscope_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockscope_cache_hits_total",
				Help: "Price series cache hits",
			},
			[]string{"symbol"},
		),
		cacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockscope_cache_misses_total",
				Help: "Price series cache misses",
			},
			[]string{"symbol"},
		),
		upstreamCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockscope_upstream_calls_total",
				Help: "Calls made to the market data provider",
			},
			[]string{"symbol"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockscope_last_price",
				Help: "Last observed close price for a symbol",
			},
			[]string{"symbol"},
		),
	}
}

// RecordStageLatency records pipeline stage latency in seconds.
func (r *Recorder) RecordStageLatency(stage string, seconds float64) {
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordCacheHit records a price series cache hit.
func (r *Recorder) RecordCacheHit(ticker string) {
	r.cacheHits.WithLabelValues(ticker).Inc()
}

// RecordCacheMiss records a price series cache miss.
func (r *Recorder) RecordCacheMiss(ticker string) {
	r.cacheMisses.WithLabelValues(ticker).Inc()
}

// RecordUpstreamCall records a call to the market data provider.
func (r *Recorder) RecordUpstreamCall(ticker string) {
	r.upstreamCalls.WithLabelValues(ticker).Inc()
}

// RecordLastPrice records the last close price for a symbol.
func (r *Recorder) RecordLastPrice(ticker string, price float64) {
	r.lastPrice.WithLabelValues(ticker).Set(price)
}
