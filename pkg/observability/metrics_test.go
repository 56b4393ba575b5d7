package observability_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m, err := observability.NewMetrics()
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnThrow(ctx, &domain.ThrowEvent{Signal: "alarm"})
	hooks.OnDeliver(ctx, &domain.DeliveryEvent{Signal: "alarm", Handler: "cmd", Duration: time.Millisecond})
	hooks.OnDeliver(ctx, &domain.DeliveryEvent{Signal: "alarm", Handler: "cmd", Duration: time.Millisecond})
	hooks.OnFailure(ctx, &domain.DeliveryEvent{Signal: "alarm", Handler: "move", Err: errors.New("boom")})
	hooks.OnComplete(ctx, &domain.ThrowEvent{Signal: "alarm", Notified: 2, Stopped: true})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Throws.WithLabelValues("alarm")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Deliveries.WithLabelValues("alarm", "cmd")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues("alarm", "move")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Stops.WithLabelValues("alarm")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.DeliveryDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m, err := observability.NewMetrics()
	require.NoError(t, err)
	m.Hooks().OnThrow(context.Background(), &domain.ThrowEvent{Signal: "sound:crying"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `aware_throws_total{signal="sound:crying"} 1`)
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetricsWith(reg)
	require.NoError(t, err)

	_, err = observability.NewMetricsWith(reg)
	assert.Error(t, err)
}
