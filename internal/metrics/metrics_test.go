package metrics

import (
	"errors"
	"fmt"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/iptvhub/internal/models"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("GET x: %w", models.ErrTimeout), "timeout"},
		{fmt.Errorf("GET x: %w", &models.HTTPError{StatusCode: 404}), "http_error"},
		{models.ErrInvalidFormat, "invalid_format"},
		{models.ErrEmptyResult, "empty"},
		{models.ErrUnsupportedResource, "unsupported"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err))
	}
}

func counterValue(t *testing.T, strategy, outcome string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, StrategyAttempts.WithLabelValues(strategy, outcome).Write(&m))
	return m.GetCounter().GetValue()
}

func TestObserveAttempt(t *testing.T) {
	before := counterValue(t, "xtream", "timeout")
	ObserveAttempt("xtream", fmt.Errorf("live: %w", models.ErrTimeout))
	assert.Equal(t, before+1, counterValue(t, "xtream", "timeout"))
}

func TestRegistryGathers(t *testing.T) {
	ObserveCache("hit")
	families, err := Registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["iptvhub_cache_lookups_total"])
}
