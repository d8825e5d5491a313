package schemata

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeDefinition ErrorType = "definition"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeCodec      ErrorType = "codec"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error codes
const (
	ErrCodeDefinitionInvalid   = "DEFINITION_INVALID"
	ErrCodeDefinitionNotFound  = "DEFINITION_NOT_FOUND"
	ErrCodeReferenceNotFound   = "REFERENCE_NOT_FOUND"
	ErrCodeCyclicReference     = "CYCLIC_REFERENCE"
	ErrCodeSchemaInvalid       = "SCHEMA_INVALID"
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeUnsupportedInput    = "UNSUPPORTED_INPUT"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeConstraintViolation = "CONSTRAINT_VIOLATION"
	ErrCodeBatchFailed         = "BATCH_VALIDATION_FAILED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// SchemataError represents failures that are not tied to a particular input
// value: malformed definitions, unknown definitions, codec failures.
type SchemataError struct {
	Type       ErrorType      `json:"type"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Definition string         `json:"definition,omitempty"`
	Field      string         `json:"field,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *SchemataError) Error() string {
	if e.Definition != "" && e.Field != "" {
		return fmt.Sprintf("[%s:%s] definition %s field '%s': %s", e.Type, e.Code, e.Definition, e.Field, e.Message)
	}
	if e.Definition != "" {
		return fmt.Sprintf("[%s:%s] definition %s: %s", e.Type, e.Code, e.Definition, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *SchemataError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a single detail
func (e *SchemataError) WithDetail(key string, value any) *SchemataError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause
func (e *SchemataError) WithCause(cause error) *SchemataError {
	e.Cause = cause
	return e
}

// WithField adds field context
func (e *SchemataError) WithField(field string) *SchemataError {
	e.Field = field
	return e
}

// NewSchemataError creates a new SchemataError
func NewSchemataError(errorType ErrorType, code, message string) *SchemataError {
	return &SchemataError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewDefinitionError creates a definition error
func NewDefinitionError(definition, field, message string) *SchemataError {
	code := ErrCodeDefinitionInvalid
	if strings.HasPrefix(message, "cyclic reference") {
		code = ErrCodeCyclicReference
	}
	return &SchemataError{
		Type:       ErrorTypeDefinition,
		Code:       code,
		Message:    message,
		Definition: definition,
		Field:      field,
		Details:    make(map[string]any),
	}
}

// NewDefinitionNotFoundError creates a definition not found error
func NewDefinitionNotFoundError(name string) *SchemataError {
	return &SchemataError{
		Type:       ErrorTypeNotFound,
		Code:       ErrCodeDefinitionNotFound,
		Message:    fmt.Sprintf("definition '%s' not found", name),
		Definition: name,
		Details:    map[string]any{"definition_name": name},
	}
}

// NewReferenceNotFoundError creates an error for a field referencing an
// undefined definition
func NewReferenceNotFoundError(definition, field, target string) *SchemataError {
	return &SchemataError{
		Type:       ErrorTypeDefinition,
		Code:       ErrCodeReferenceNotFound,
		Message:    fmt.Sprintf("referenced definition '%s' not found", target),
		Definition: definition,
		Field:      field,
		Details:    map[string]any{"target": target},
	}
}

// NewSchemaInvalidError creates an error for a generated document that does not
// resolve
func NewSchemaInvalidError(definition string, cause error) *SchemataError {
	return &SchemataError{
		Type:       ErrorTypeDefinition,
		Code:       ErrCodeSchemaInvalid,
		Message:    "generated JSON schema is invalid",
		Definition: definition,
		Cause:      cause,
		Details:    make(map[string]any),
	}
}

// NewCodecError creates a codec error
func NewCodecError(code, message string, cause error) *SchemataError {
	return &SchemataError{
		Type:    ErrorTypeCodec,
		Code:    code,
		Message: message,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *SchemataError {
	return &SchemataError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeInternalError,
		Message: message,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// ============================================================================
// Structural validation errors
// ============================================================================

// Validation tags carried in FieldError.Context["validation"].
const (
	ValidationRequired = "required"
	ValidationCast     = "cast"
	ValidationEmbed    = "embed"
)

// FieldError is one diagnostic for a field.
type FieldError struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
	// Nested is set when an embedded entity failed validation.
	Nested *ErrorReport `json:"nested,omitempty"`
	// Items is set when elements of an embedded entity array failed validation.
	// It is aligned with the input array; valid elements are nil.
	Items []*ErrorReport `json:"items,omitempty"`
}

// Validation returns the validation tag of the error.
func (e FieldError) Validation() string {
	v, _ := e.Context["validation"].(string)
	return v
}

func (e FieldError) String() string {
	switch {
	case e.Nested != nil:
		return e.Message + " (" + e.Nested.Error() + ")"
	case len(e.Items) > 0:
		parts := make([]string, 0, len(e.Items))
		for i, item := range e.Items {
			if item != nil {
				parts = append(parts, fmt.Sprintf("[%d] %s", i, item.Error()))
			}
		}
		return e.Message + " (" + strings.Join(parts, "; ") + ")"
	default:
		return e.Message
	}
}

// ErrorReport is the result of a failed structural validation: field-level
// diagnostics keyed by field name.
type ErrorReport struct {
	Definition string                  `json:"definition"`
	Fields     map[string][]FieldError `json:"errors"`
}

// NewErrorReport creates an empty report.
func NewErrorReport(definition string) *ErrorReport {
	return &ErrorReport{Definition: definition, Fields: make(map[string][]FieldError)}
}

// Add records a diagnostic for field.
func (r *ErrorReport) Add(field string, fe FieldError) {
	r.Fields[field] = append(r.Fields[field], fe)
}

// Merge copies every diagnostic of other into r.
func (r *ErrorReport) Merge(other *ErrorReport) {
	if other == nil {
		return
	}
	for _, name := range other.FieldNames() {
		r.Fields[name] = append(r.Fields[name], other.Fields[name]...)
	}
}

// Empty reports whether no diagnostics were recorded.
func (r *ErrorReport) Empty() bool {
	return r == nil || len(r.Fields) == 0
}

// Has reports whether field has a diagnostic with the validation tag. An empty
// tag matches any diagnostic.
func (r *ErrorReport) Has(field, validation string) bool {
	if r == nil {
		return false
	}
	for _, fe := range r.Fields[field] {
		if validation == "" || fe.Validation() == validation {
			return true
		}
	}
	return false
}

// FieldNames returns the names of failing fields, sorted.
func (r *ErrorReport) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *ErrorReport) Error() string {
	parts := make([]string, 0, len(r.Fields))
	for _, name := range r.FieldNames() {
		msgs := make([]string, 0, len(r.Fields[name]))
		for _, fe := range r.Fields[name] {
			msgs = append(msgs, fe.String())
		}
		parts = append(parts, name+": "+strings.Join(msgs, ", "))
	}
	return fmt.Sprintf("%s is invalid: %s", r.Definition, strings.Join(parts, "; "))
}

// ============================================================================
// JSON Schema validation errors
// ============================================================================

// Violation is a JSON Schema constraint failure.
type Violation struct {
	Message string `json:"message"`
	// Pointer addresses the failing value, e.g. "#/likes". "#" is the document
	// root.
	Pointer string `json:"pointer"`
}

// ViolationError is returned when a serialized input does not satisfy the
// generated JSON Schema.
type ViolationError struct {
	Definition string      `json:"definition"`
	Violations []Violation `json:"violations"`
}

// Pointers returns the pointer of every violation in order.
func (e *ViolationError) Pointers() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Pointer
	}
	return out
}

func (e *ViolationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Pointer + ": " + v.Message
	}
	return fmt.Sprintf("%s does not match its JSON schema: %s", e.Definition, strings.Join(parts, "; "))
}

// ============================================================================
// Batch errors
// ============================================================================

// BatchFailure is the outcome of one failed element of a batch.
type BatchFailure struct {
	// Index is the position of the element in the input.
	Index int
	// Err is an *ErrorReport, a *ViolationError or a *SchemataError.
	Err error
}

// BatchError is returned by ParseMany when at least one element failed. Failures
// are ordered by input position; successful elements are not reported.
type BatchError struct {
	Definition string
	Total      int
	Failures   []BatchFailure
}

// Errors returns the per-element errors in input order.
func (e *BatchError) Errors() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Err
	}
	return out
}

func (e *BatchError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("[%d] %s", f.Index, f.Err.Error())
	}
	return fmt.Sprintf("%d of %d %s inputs are invalid: %s", len(e.Failures), e.Total, e.Definition, strings.Join(parts, "; "))
}

func (e *BatchError) Unwrap() []error {
	return e.Errors()
}
