package internal

import (
	"context"
	"sync"
)

// TelemetryEmitter receives validation measurements. Service wiring can register
// a metrics-backed emitter; the default drops everything.
type TelemetryEmitter func(ctx context.Context, name string, labels map[string]string, value any)

var (
	teleMu   sync.RWMutex
	teleImpl TelemetryEmitter = func(context.Context, string, map[string]string, any) {}
)

// RegisterTelemetryEmitter replaces the active emitter. nil restores the no-op.
func RegisterTelemetryEmitter(fn TelemetryEmitter) {
	teleMu.Lock()
	defer teleMu.Unlock()
	if fn == nil {
		teleImpl = func(context.Context, string, map[string]string, any) {}
		return
	}
	teleImpl = fn
}

func emit(ctx context.Context, name string, labels map[string]string, value any) {
	teleMu.RLock()
	fn := teleImpl
	teleMu.RUnlock()
	fn(ctx, name, labels, value)
}

// EmitParseLatency records the duration of one Parse in microseconds.
// path is "structural" or "json_schema".
func EmitParseLatency(ctx context.Context, definition, path string, micros int64) {
	emit(ctx, "schemata_parse_latency_us", map[string]string{"definition": definition, "path": path}, micros)
}

// EmitParseOutcome counts parses by result: "ok", "invalid" or "violation".
func EmitParseOutcome(ctx context.Context, definition, outcome string) {
	emit(ctx, "schemata_parse_total", map[string]string{"definition": definition, "outcome": outcome}, int64(1))
}

// EmitBatchSize records the size of a ParseMany call and how many elements failed.
func EmitBatchSize(ctx context.Context, definition string, total, failed int) {
	labels := map[string]string{"definition": definition}
	emit(ctx, "schemata_batch_size", labels, int64(total))
	emit(ctx, "schemata_batch_failures", labels, int64(failed))
}
