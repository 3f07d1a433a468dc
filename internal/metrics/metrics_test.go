package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	t.Run("Counts requests by result", func(t *testing.T) {
		// Given: metrics on a private registry
		m := New(prometheus.NewRegistry())

		// When: recording one success and two failures
		m.ObserveRequest("submit_move", 10*time.Millisecond, nil)
		m.ObserveRequest("submit_move", 10*time.Millisecond, errors.New("boom"))
		m.ObserveRequest("submit_move", 10*time.Millisecond, errors.New("boom"))

		// Then: each result has its own series
		assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues("submit_move", "ok")), 0)
		assert.InDelta(t, 2, testutil.ToFloat64(m.requests.WithLabelValues("submit_move", "error")), 0)
	})

	t.Run("Counts rejections, stale responses and cache lookups", func(t *testing.T) {
		m := New(prometheus.NewRegistry())

		m.ObserveRejection("busy")
		m.ObserveStale("create_game")
		m.ObserveCache(true)
		m.ObserveCache(false)
		m.ObserveCache(false)

		assert.InDelta(t, 1, testutil.ToFloat64(m.rejections.WithLabelValues("busy")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.staleResponses.WithLabelValues("create_game")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.cache.WithLabelValues("hit")), 0)
		assert.InDelta(t, 2, testutil.ToFloat64(m.cache.WithLabelValues("miss")), 0)
	})

	t.Run("Nil metrics are a no-op", func(t *testing.T) {
		var m *Metrics

		assert.NotPanics(t, func() {
			m.ObserveRequest("x", time.Second, nil)
			m.ObserveRejection("busy")
			m.ObserveStale("x")
			m.ObserveCache(true)
		})
	})
}
