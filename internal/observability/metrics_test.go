package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	reg := NewRegistry()
	m := NewMetrics(reg)

	m.SettlementTransitions.WithLabelValues("finalize").Inc()
	m.CacheRequests.WithLabelValues("hit").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SettlementTransitions.WithLabelValues("finalize")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("hit")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["clubsettle_settlement_transitions_total"])
	assert.True(t, names["clubsettle_settlement_cache_requests_total"])
}
