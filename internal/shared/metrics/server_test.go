package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	ok := HealthCheck{Name: "pg", Check: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }}

	t.Run("all healthy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Handler(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("dependency down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Handler(ok, down).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "redis unhealthy")
	})
}

func TestSettlementObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSettlement(reg)

	m.Observe("won", 200, time.Now())
	m.Observe("lost", 0, time.Now())
	m.Observe("won", 50, time.Now())

	require.Equal(t, 2.0, testutil.ToFloat64(m.Invocations.WithLabelValues("won")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("lost")))
	assert.Equal(t, 250.0, testutil.ToFloat64(m.Payout))
}
