package eventsink

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResourceGaugeTargetsCurrentProcess(t *testing.T) {
	registry := prometheus.NewRegistry()
	gauge, err := NewResourceGauge(registry)
	require.NoError(t, err)
	require.NotNil(t, gauge)

	require.NoError(t, gauge.Sample())

	metrics, err := registry.Gather()
	require.NoError(t, err)
	var sawMemory bool
	for _, mf := range metrics {
		if mf.GetName() == "oxy_engine_process_memory_bytes" {
			sawMemory = true
		}
	}
	assert.True(t, sawMemory, "expected the memory gauge to be registered")
}
