package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tictactoe_client"

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	requests       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	rejections     *prometheus.CounterVec
	staleResponses *prometheus.CounterVec
	cache          *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	that := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "API calls by operation and result.",
		}, []string{"operation", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "API call latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "move_rejections_total",
			Help:      "Moves rejected locally before any request was sent.",
		}, []string{"reason"}),
		staleResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Responses discarded because a newer session started.",
		}, []string{"operation"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_cache_total",
			Help:      "History snapshot cache lookups by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(that.requests, that.latency, that.rejections, that.staleResponses, that.cache)

	return that
}

func (that *Metrics) ObserveRequest(operation string, elapsed time.Duration, err error) {
	if that == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}

	that.requests.WithLabelValues(operation, result).Inc()
	that.latency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (that *Metrics) ObserveRejection(reason string) {
	if that == nil {
		return
	}

	that.rejections.WithLabelValues(reason).Inc()
}

func (that *Metrics) ObserveStale(operation string) {
	if that == nil {
		return
	}

	that.staleResponses.WithLabelValues(operation).Inc()
}

func (that *Metrics) ObserveCache(hit bool) {
	if that == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}

	that.cache.WithLabelValues(result).Inc()
}
