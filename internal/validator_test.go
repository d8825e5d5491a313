package internal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lychee-technology/schemata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioPost = schemata.NewDefinition("post").
	Field("title", schemata.Text(), schemata.Required()).
	Field("description", schemata.Text()).
	Field("likes", schemata.Integer(), schemata.Required(), schemata.With(schemata.OptionMinimum, 0)).
	MustBuild()

func newTestValidator(t *testing.T, def *schemata.Definition, mutate ...func(*schemata.Config)) *Validator {
	t.Helper()
	cfg := schemata.DefaultConfig()
	for _, m := range mutate {
		m(cfg)
	}
	v, err := NewValidator(def, cfg)
	require.NoError(t, err)
	return v
}

func TestValidator_ParseScenario(t *testing.T) {
	v := newTestValidator(t, scenarioPost)
	ctx := context.Background()
	input := map[string]any{"title": "Hello", "description": "d", "likes": -1}

	rec, err := v.Parse(ctx, input)
	require.NoError(t, err, "minimum is not enforced structurally")
	assert.Equal(t, int64(-1), rec.Value("likes"))

	_, err = v.Parse(ctx, input, schemata.WithJSONValidation())
	var violationErr *schemata.ViolationError
	require.ErrorAs(t, err, &violationErr)
	assert.Equal(t, []string{"#/likes"}, violationErr.Pointers())
	assert.Equal(t, "post", violationErr.Definition)
}

func TestValidator_JSONValidationShortCircuits(t *testing.T) {
	v := newTestValidator(t, scenarioPost, func(c *schemata.Config) { c.Validation.ValidateJSON = true })
	ctx := context.Background()

	// likes violates the minimum and title is missing: only the JSON path reports
	_, err := v.Parse(ctx, map[string]any{"likes": -1})
	var violationErr *schemata.ViolationError
	require.ErrorAs(t, err, &violationErr)
	assert.ElementsMatch(t, []string{"#", "#/likes"}, violationErr.Pointers())

	_, err = v.Parse(ctx, map[string]any{"likes": -1}, schemata.WithoutJSONValidation())
	var report *schemata.ErrorReport
	require.ErrorAs(t, err, &report)
	assert.True(t, report.Has("title", schemata.ValidationRequired))
}

func TestValidator_StructuralErrors(t *testing.T) {
	v := newTestValidator(t, testPost)

	_, err := v.Parse(context.Background(), map[string]any{"title": "t", "likes": "lots"})
	var report *schemata.ErrorReport
	require.ErrorAs(t, err, &report)
	assert.Equal(t, []string{"likes"}, report.FieldNames())
	assert.Contains(t, err.Error(), "likes: is invalid")
}

func TestValidator_ParseCanceled(t *testing.T) {
	v := newTestValidator(t, testPost)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Parse(ctx, validPostInput())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidator_DumpRoundTrip(t *testing.T) {
	v := newTestValidator(t, testPost)
	ctx := context.Background()

	rec, err := v.Parse(ctx, validPostInput(), schemata.WithJSONValidation())
	require.NoError(t, err)

	tree, err := v.Dump(rec)
	require.NoError(t, err)
	again, err := v.Parse(ctx, tree, schemata.WithJSONValidation())
	require.NoError(t, err)
	assert.Equal(t, rec.ToMap(), again.ToMap())
}

func TestValidator_ParseMany(t *testing.T) {
	tests := []struct {
		name     string
		parallel bool
	}{
		{name: "sequential", parallel: false},
		{name: "parallel", parallel: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			v := newTestValidator(t, scenarioPost, func(c *schemata.Config) {
				c.Batch.EnableParallelProcessing = tt.parallel
				c.Batch.ParallelThreshold = 2
				c.Batch.MaxParallelWorkers = 3
			})
			ctx := context.Background()

			inputs := make([]any, 10)
			for i := range inputs {
				inputs[i] = map[string]any{"title": fmt.Sprintf("post-%d", i), "likes": i}
			}
			records, err := v.ParseMany(ctx, inputs)
			require.NoError(t, err)
			require.Len(t, records, len(inputs))
			for i, rec := range records {
				assert.Equal(t, fmt.Sprintf("post-%d", i), rec.Value("title"))
			}

			inputs[3] = map[string]any{"likes": 1}
			inputs[7] = map[string]any{"title": "x", "likes": "many"}
			records, err = v.ParseMany(ctx, inputs)
			assert.Nil(t, records)

			var batchErr *schemata.BatchError
			require.ErrorAs(t, err, &batchErr)
			assert.Equal(t, len(inputs), batchErr.Total)
			require.Len(t, batchErr.Failures, 2)
			assert.Equal(t, 3, batchErr.Failures[0].Index)
			assert.Equal(t, 7, batchErr.Failures[1].Index)

			var report *schemata.ErrorReport
			require.True(t, errors.As(batchErr.Failures[0].Err, &report))
			assert.True(t, report.Has("title", schemata.ValidationRequired))
		})
	}
}

func TestValidator_ParseManyEmpty(t *testing.T) {
	v := newTestValidator(t, scenarioPost)
	records, err := v.ParseMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)
}

func TestValidator_ParseManyLimit(t *testing.T) {
	v := newTestValidator(t, scenarioPost, func(c *schemata.Config) { c.Batch.MaxBatchSize = 2 })

	_, err := v.ParseMany(context.Background(), []any{map[string]any{}, map[string]any{}, map[string]any{}})
	var schemataErr *schemata.SchemataError
	require.ErrorAs(t, err, &schemataErr)
	assert.Equal(t, schemata.ErrCodeBatchFailed, schemataErr.Code)
}

func TestNewValidator_Errors(t *testing.T) {
	_, err := NewValidator(nil, nil)
	assert.Error(t, err)

	cfg := schemata.DefaultConfig()
	cfg.Batch.MaxParallelWorkers = 0
	_, err = NewValidator(scenarioPost, cfg)
	assert.Error(t, err)

	v, err := NewValidator(scenarioPost, nil)
	require.NoError(t, err)
	assert.Same(t, scenarioPost, v.Definition())
	assert.NotNil(t, v.JSONSchema())
}

func TestValidator_EnumRoundTrip(t *testing.T) {
	def := schemata.NewDefinition("ticket").
		Field("status", schemata.Enum("draft", "published", "archived"), schemata.Required()).
		Field("priority", schemata.IntEnum(
			schemata.EnumValue{Name: "low", Value: 1},
			schemata.EnumValue{Name: "high", Value: 2},
		), schemata.Required()).
		MustBuild()
	v := newTestValidator(t, def)

	tests := []struct {
		name         string
		status       any
		priority     any
		wantStatus   string
		wantPriority string
		wantPointer  string
	}{
		{name: "draft", status: "draft", priority: float64(1), wantStatus: "draft", wantPriority: "low"},
		{name: "published", status: "published", priority: float64(2), wantStatus: "published", wantPriority: "high"},
		{name: "archived", status: "archived", priority: float64(1), wantStatus: "archived", wantPriority: "low"},
		{name: "undeclared tag", status: "other", priority: float64(1), wantPointer: "#/status"},
		{name: "undeclared integer", status: "draft", priority: float64(3), wantPointer: "#/priority"},
		{name: "integer as string", status: "draft", priority: "2", wantPointer: "#/priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := map[string]any{"status": tt.status, "priority": tt.priority}
			rec, err := v.Parse(context.Background(), input, schemata.WithJSONValidation())

			if tt.wantPointer != "" {
				var violationErr *schemata.ViolationError
				require.ErrorAs(t, err, &violationErr)
				assert.Equal(t, []string{tt.wantPointer}, violationErr.Pointers())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Value("status"))
			assert.Equal(t, tt.wantPriority, rec.Value("priority"))
		})
	}
}
