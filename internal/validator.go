package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/lychee-technology/schemata"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
)

// Validator is the façade over both validation paths of one definition.
type Validator struct {
	def        *schemata.Definition
	config     *schemata.Config
	codec      *Codec
	structural *StructuralValidator
	compiled   *CompiledSchema
}

// NewValidator builds the structural validator and compiles the JSON Schema
// document of def. Both are derived once and reused by every call.
func NewValidator(def *schemata.Definition, config *schemata.Config) (*Validator, error) {
	if def == nil {
		return nil, schemata.NewDefinitionError("", "", "definition cannot be nil")
	}
	if config == nil {
		config = schemata.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	codec := NewCodec()
	structural, err := NewStructuralValidator(def, NewCaster(), codec)
	if err != nil {
		return nil, err
	}

	resolver := NewResolver(NewGenerator(config.Validation.CacheDocuments), codec)
	compiled, err := resolver.Compile(def)
	if err != nil {
		return nil, err
	}

	zap.S().Debugw("validator created", "definition", def.Name, "fields", len(def.Fields))
	return &Validator{
		def:        def,
		config:     config,
		codec:      codec,
		structural: structural,
		compiled:   compiled,
	}, nil
}

func (v *Validator) Definition() *schemata.Definition {
	return v.def
}

func (v *Validator) JSONSchema() schemata.CompiledSchema {
	return v.compiled
}

func (v *Validator) Dump(record *schemata.Record) (map[string]any, error) {
	return v.codec.Dump(record)
}

func (v *Validator) Parse(ctx context.Context, input any, opts ...schemata.ParseOption) (*schemata.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.parse(ctx, input, v.parseOptions(opts))
}

func (v *Validator) parse(ctx context.Context, input any, opts schemata.ParseOptions) (*schemata.Record, error) {
	if opts.ValidateJSON {
		start := time.Now()
		tree, err := v.codec.ToJSONTree(v.def, input)
		if err != nil {
			return nil, err
		}
		violations := v.compiled.Validate(tree)
		EmitParseLatency(ctx, v.def.Name, "json_schema", time.Since(start).Microseconds())
		if len(violations) > 0 {
			zap.S().Debugw("JSON schema validation failed", "definition", v.def.Name, "violations", len(violations))
			EmitParseOutcome(ctx, v.def.Name, "violation")
			return nil, &schemata.ViolationError{Definition: v.def.Name, Violations: violations}
		}
	}

	start := time.Now()
	rec, report, err := v.structural.Validate(input)
	EmitParseLatency(ctx, v.def.Name, "structural", time.Since(start).Microseconds())
	if err != nil {
		return nil, err
	}
	if report != nil {
		EmitParseOutcome(ctx, v.def.Name, "invalid")
		return nil, report
	}
	EmitParseOutcome(ctx, v.def.Name, "ok")
	return rec, nil
}

type parseResult struct {
	record *schemata.Record
	err    error
}

func (v *Validator) ParseMany(ctx context.Context, inputs []any, opts ...schemata.ParseOption) ([]*schemata.Record, error) {
	zap.S().Debugw("ParseMany called", "definition", v.def.Name, "inputCount", len(inputs))
	if len(inputs) == 0 {
		return make([]*schemata.Record, 0), nil
	}

	batch := v.config.Batch
	if batch.MaxBatchSize > 0 && len(inputs) > batch.MaxBatchSize {
		return nil, schemata.NewSchemataError(
			schemata.ErrorTypeValidation,
			schemata.ErrCodeBatchFailed,
			fmt.Sprintf("batch size %d exceeds the limit of %d", len(inputs), batch.MaxBatchSize),
		).WithDetail("definition", v.def.Name)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	parseOpts := v.parseOptions(opts)
	parseOne := func(input *any) parseResult {
		if err := ctx.Err(); err != nil {
			return parseResult{err: err}
		}
		rec, err := v.parse(ctx, *input, parseOpts)
		return parseResult{record: rec, err: err}
	}

	var results []parseResult
	if batch.EnableParallelProcessing && len(inputs) >= batch.ParallelThreshold {
		mapper := iter.Mapper[any, parseResult]{MaxGoroutines: batch.MaxParallelWorkers}
		results = mapper.Map(inputs, parseOne)
	} else {
		results = make([]parseResult, len(inputs))
		for i := range inputs {
			results[i] = parseOne(&inputs[i])
		}
	}

	records := make([]*schemata.Record, 0, len(inputs))
	var failures []schemata.BatchFailure
	for i, res := range results {
		if res.err != nil {
			failures = append(failures, schemata.BatchFailure{Index: i, Err: res.err})
			continue
		}
		records = append(records, res.record)
	}

	duration := time.Since(startTime).Microseconds()
	EmitBatchSize(ctx, v.def.Name, len(inputs), len(failures))
	if len(failures) > 0 {
		zap.S().Warnw("ParseMany failed", "definition", v.def.Name, "failedCount", len(failures), "inputCount", len(inputs), "durationMicroseconds", duration)
		return nil, &schemata.BatchError{Definition: v.def.Name, Total: len(inputs), Failures: failures}
	}

	zap.S().Debugw("ParseMany completed", "definition", v.def.Name, "recordCount", len(records), "durationMicroseconds", duration)
	return records, nil
}

func (v *Validator) parseOptions(opts []schemata.ParseOption) schemata.ParseOptions {
	o := schemata.ParseOptions{ValidateJSON: v.config.Validation.ValidateJSON}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
