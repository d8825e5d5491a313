package schemata

import (
	"fmt"
	"sort"
	"strings"
)

// Recognized option keys. Keys other than these are ignored by the structural
// path and passed through to the generated JSON Schema.
const (
	OptionRequired             = "required"
	OptionDefault              = "default"
	OptionDescription          = "description"
	OptionMinimum              = "minimum"
	OptionMaximum              = "maximum"
	OptionExclusiveMinimum     = "exclusive_minimum"
	OptionExclusiveMaximum     = "exclusive_maximum"
	OptionMultipleOf           = "multiple_of"
	OptionMinLength            = "min_length"
	OptionMaxLength            = "max_length"
	OptionPattern              = "pattern"
	OptionFormat               = "format"
	OptionMinItems             = "min_items"
	OptionMaxItems             = "max_items"
	OptionUniqueItems          = "unique_items"
	OptionAdditionalProperties = "additional_properties"
	OptionPropertyNames        = "property_names"
	OptionMinProperties        = "min_properties"
	OptionMaxProperties        = "max_properties"
)

// Option groups by the type they constrain.
var (
	NumericOptions = []string{OptionMinimum, OptionMaximum, OptionExclusiveMinimum, OptionExclusiveMaximum, OptionMultipleOf}
	StringOptions  = []string{OptionMinLength, OptionMaxLength, OptionPattern, OptionFormat}
	ArrayOptions   = []string{OptionMinItems, OptionMaxItems, OptionUniqueItems}
	ObjectOptions  = []string{OptionAdditionalProperties, OptionPropertyNames, OptionMinProperties, OptionMaxProperties}
)

var recognizedOptions = func() map[string]struct{} {
	keys := map[string]struct{}{
		OptionRequired:    {},
		OptionDefault:     {},
		OptionDescription: {},
	}
	for _, group := range [][]string{NumericOptions, StringOptions, ArrayOptions, ObjectOptions} {
		for _, k := range group {
			keys[k] = struct{}{}
		}
	}
	return keys
}()

// IsRecognizedOption reports whether key has a defined meaning.
func IsRecognizedOption(key string) bool {
	_, ok := recognizedOptions[key]
	return ok
}

// Options holds per-field options keyed by snake_case name.
type Options map[string]any

// Required reports the value of the "required" option. Fields are optional
// unless it is set to true.
func (o Options) Required() bool {
	v, ok := o[OptionRequired].(bool)
	return ok && v
}

// Default returns the "default" option.
func (o Options) Default() (any, bool) {
	v, ok := o[OptionDefault]
	return v, ok
}

// Keys returns the option keys sorted alphabetically.
func (o Options) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (o Options) clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// FieldOption mutates the options of a field being declared.
type FieldOption func(Options)

// Required marks the field as required.
func Required() FieldOption {
	return func(o Options) { o[OptionRequired] = true }
}

// Default sets the value applied when the field is absent from the input.
func Default(value any) FieldOption {
	return func(o Options) { o[OptionDefault] = value }
}

// With sets an arbitrary option.
func With(key string, value any) FieldOption {
	return func(o Options) { o[key] = value }
}

// Field is one entry of a property table.
type Field struct {
	Name    string
	Type    FieldType
	Options Options
}

// Required reports whether the field must be present.
func (f Field) Required() bool {
	return f.Options.Required()
}

// Embedded reports whether the field is validated recursively.
func (f Field) Embedded() bool {
	return IsEmbedded(f.Type)
}

// PropertyTable is an ordered list of uniquely named fields.
type PropertyTable []Field

// Lookup returns the field called name.
func (t PropertyTable) Lookup(name string) (Field, bool) {
	for _, f := range t {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns field names in declaration order.
func (t PropertyTable) Names() []string {
	names := make([]string, len(t))
	for i, f := range t {
		names[i] = f.Name
	}
	return names
}

// Definition is a named property table. Definitions are immutable once built
// and may be shared between any number of referencing definitions.
type Definition struct {
	Name   string
	Fields PropertyTable
}

// References returns the definitions embedded directly by d, in field order and
// without duplicates.
func (d *Definition) References() []*Definition {
	var refs []*Definition
	seen := make(map[*Definition]struct{})
	for _, f := range d.Fields {
		var ref *Definition
		switch ft := f.Type.(type) {
		case EntityType:
			ref = ft.Ref
		case ArrayType:
			if e, ok := ft.Inner.(EntityType); ok {
				ref = e.Ref
			}
		}
		if ref == nil {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

// DefinitionBuilder accumulates fields for a Definition.
type DefinitionBuilder struct {
	name   string
	fields PropertyTable
}

// NewDefinition starts a definition called name.
//
// Usage:
//
//	post, err := schemata.NewDefinition("post").
//	    Field("title", schemata.Text(), schemata.Required()).
//	    Field("likes", schemata.Integer(), schemata.Required(), schemata.With("minimum", 0)).
//	    Build()
func NewDefinition(name string) *DefinitionBuilder {
	return &DefinitionBuilder{name: name}
}

// Field appends a field.
func (b *DefinitionBuilder) Field(name string, t FieldType, opts ...FieldOption) *DefinitionBuilder {
	options := make(Options)
	for _, opt := range opts {
		opt(options)
	}
	b.fields = append(b.fields, Field{Name: name, Type: t, Options: options})
	return b
}

// FieldWithOptions appends a field with a prepared options map.
func (b *DefinitionBuilder) FieldWithOptions(name string, t FieldType, options Options) *DefinitionBuilder {
	if options == nil {
		options = make(Options)
	}
	b.fields = append(b.fields, Field{Name: name, Type: t, Options: options.clone()})
	return b
}

// Build validates the accumulated fields and returns the definition.
func (b *DefinitionBuilder) Build() (*Definition, error) {
	if strings.TrimSpace(b.name) == "" {
		return nil, NewDefinitionError(b.name, "", "definition name cannot be empty")
	}
	seen := make(map[string]struct{}, len(b.fields))
	fields := make(PropertyTable, 0, len(b.fields))
	for _, f := range b.fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, NewDefinitionError(b.name, f.Name, "field name cannot be empty")
		}
		if _, dup := seen[f.Name]; dup {
			return nil, NewDefinitionError(b.name, f.Name, "duplicate field name")
		}
		seen[f.Name] = struct{}{}
		if err := validateFieldType(f.Type); err != nil {
			return nil, NewDefinitionError(b.name, f.Name, err.Error())
		}
		if v, ok := f.Options[OptionRequired]; ok {
			if _, isBool := v.(bool); !isBool {
				return nil, NewDefinitionError(b.name, f.Name, fmt.Sprintf("option %q must be a boolean", OptionRequired))
			}
		}
		fields = append(fields, Field{Name: f.Name, Type: f.Type, Options: f.Options.clone()})
	}

	def := &Definition{Name: b.name, Fields: fields}
	if err := checkAcyclic(def, nil); err != nil {
		return nil, err
	}
	return def, nil
}

// MustBuild is like Build but panics on error. Intended for package-level
// definitions.
func (b *DefinitionBuilder) MustBuild() *Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

func checkAcyclic(def *Definition, path []*Definition) error {
	for _, p := range path {
		if p == def {
			names := make([]string, 0, len(path)+1)
			for _, q := range path {
				names = append(names, q.Name)
			}
			names = append(names, def.Name)
			return NewDefinitionError(def.Name, "", "cyclic reference: "+strings.Join(names, " -> "))
		}
	}
	path = append(path, def)
	for _, ref := range def.References() {
		if err := checkAcyclic(ref, path); err != nil {
			return err
		}
	}
	return nil
}
