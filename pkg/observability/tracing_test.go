package observability_test

import (
	"context"
	"testing"

	"github.com/aretw0/aware/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTracing_Disabled(t *testing.T) {
	tp, shutdown, err := observability.SetupTracing(context.Background(), observability.TracingConfig{Endpoint: "http://localhost:4318"})
	require.NoError(t, err)
	assert.NotNil(t, tp)
	assert.NoError(t, shutdown(context.Background()))

	tp, shutdown, err = observability.SetupTracing(context.Background(), observability.TracingConfig{Enabled: true})
	require.NoError(t, err)
	assert.NotNil(t, tp)
	assert.NoError(t, shutdown(context.Background()))
}
