package schemata

import (
	"context"
)

// ParseOptions controls a single Parse or ParseMany call.
type ParseOptions struct {
	// ValidateJSON validates the serialized input against the generated JSON
	// Schema before structural casting. Constraint violations short-circuit the
	// structural step.
	ValidateJSON bool
}

// ParseOption mutates ParseOptions.
type ParseOption func(*ParseOptions)

// WithJSONValidation enables JSON Schema validation for the call.
func WithJSONValidation() ParseOption {
	return func(o *ParseOptions) { o.ValidateJSON = true }
}

// WithoutJSONValidation disables JSON Schema validation for the call, even if
// the validator was configured to validate by default.
func WithoutJSONValidation() ParseOption {
	return func(o *ParseOptions) { o.ValidateJSON = false }
}

// CompiledSchema is a resolved JSON Schema document.
type CompiledSchema interface {
	// Document returns the raw generated document tree.
	Document() map[string]any
	// MarshalJSON renders the document with properties in declaration order.
	MarshalJSON() ([]byte, error)
	// Validate checks a JSON value tree against the document.
	Validate(value any) []Violation
}

// Validator derives both validation paths from one definition.
type Validator interface {
	// Definition returns the definition the validator was built from.
	Definition() *Definition

	// Parse casts input into a record. Input may be a map[string]any, a *Record,
	// JSON bytes or string, or any value the codec can serialize to a JSON
	// object. Structural failures are returned as *ErrorReport, JSON Schema
	// failures as *ViolationError.
	Parse(ctx context.Context, input any, opts ...ParseOption) (*Record, error)

	// ParseMany parses every input independently. Records are returned in input
	// order only if every input is valid; otherwise the error is a *BatchError
	// with one entry per failed input.
	ParseMany(ctx context.Context, inputs []any, opts ...ParseOption) ([]*Record, error)

	// JSONSchema returns the compiled JSON Schema document.
	JSONSchema() CompiledSchema

	// Dump serializes a record to its canonical JSON value tree.
	Dump(record *Record) (map[string]any, error)
}

// DefinitionRegistry provides definition lookup operations.
// Implementations can load definitions from files, databases, or other sources.
type DefinitionRegistry interface {
	// GetDefinition retrieves a definition by name
	GetDefinition(name string) (*Definition, error)
	// ListDefinitions returns the names of all registered definitions, sorted
	ListDefinitions() []string
}
