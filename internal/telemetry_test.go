package internal

import (
	"context"
	"sync"
	"testing"

	"github.com/lychee-technology/schemata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMetric struct {
	name   string
	labels map[string]string
	value  any
}

type metricRecorder struct {
	mu      sync.Mutex
	metrics []recordedMetric
}

func (r *metricRecorder) emit(_ context.Context, name string, labels map[string]string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, recordedMetric{name: name, labels: labels, value: value})
}

func (r *metricRecorder) outcomes() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int)
	for _, m := range r.metrics {
		if m.name == "schemata_parse_total" {
			out[m.labels["outcome"]]++
		}
	}
	return out
}

func (r *metricRecorder) find(name string) []recordedMetric {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedMetric
	for _, m := range r.metrics {
		if m.name == name {
			out = append(out, m)
		}
	}
	return out
}

func TestTelemetry_ParseOutcomes(t *testing.T) {
	recorder := &metricRecorder{}
	RegisterTelemetryEmitter(recorder.emit)
	t.Cleanup(func() { RegisterTelemetryEmitter(nil) })

	v := newTestValidator(t, scenarioPost)
	ctx := context.Background()

	_, err := v.Parse(ctx, map[string]any{"title": "a", "likes": 1})
	require.NoError(t, err)
	_, err = v.Parse(ctx, map[string]any{"likes": 1})
	require.Error(t, err)
	_, err = v.Parse(ctx, map[string]any{"title": "a", "likes": -1}, schemata.WithJSONValidation())
	require.Error(t, err)

	assert.Equal(t, map[string]int{"ok": 1, "invalid": 1, "violation": 1}, recorder.outcomes())

	latencies := recorder.find("schemata_parse_latency_us")
	require.NotEmpty(t, latencies)
	paths := NewSet[string]()
	for _, m := range latencies {
		assert.Equal(t, "post", m.labels["definition"])
		paths.Add(m.labels["path"])
	}
	assert.True(t, paths.Contains("structural"))
	assert.True(t, paths.Contains("json_schema"))
}

func TestTelemetry_BatchSize(t *testing.T) {
	recorder := &metricRecorder{}
	RegisterTelemetryEmitter(recorder.emit)
	t.Cleanup(func() { RegisterTelemetryEmitter(nil) })

	v := newTestValidator(t, scenarioPost)
	_, err := v.ParseMany(context.Background(), []any{
		map[string]any{"title": "a", "likes": 1},
		map[string]any{"likes": 1},
	})
	require.Error(t, err)

	sizes := recorder.find("schemata_batch_size")
	require.Len(t, sizes, 1)
	assert.Equal(t, int64(2), sizes[0].value)

	failures := recorder.find("schemata_batch_failures")
	require.Len(t, failures, 1)
	assert.Equal(t, int64(1), failures[0].value)
}
