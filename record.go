package schemata

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Record is the typed result of a successful structural validation. It holds one
// value per declared field: nil for unset optional fields, *Record for embedded
// entities and []*Record for embedded entity arrays.
//
// Records are never mutated after they are returned.
type Record struct {
	definition *Definition
	values     map[string]any
}

// NewRecord assembles a record. values must already be cast; callers outside
// this module should obtain records through a Validator.
func NewRecord(def *Definition, values map[string]any) *Record {
	rec := &Record{definition: def, values: make(map[string]any, len(def.Fields))}
	for _, f := range def.Fields {
		rec.values[f.Name] = values[f.Name]
	}
	return rec
}

// Definition returns the definition the record was validated against.
func (r *Record) Definition() *Definition {
	return r.definition
}

// Get returns the value of field name. Arrays and maps are returned as copies.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return detach(v), ok
}

// Value returns the value of field name, or nil.
func (r *Record) Value(name string) any {
	return detach(r.values[name])
}

// Embedded returns the sub-record of an embedded entity field.
func (r *Record) Embedded(name string) *Record {
	rec, _ := r.values[name].(*Record)
	return rec
}

// EmbeddedMany returns the sub-records of an embedded entity array field.
func (r *Record) EmbeddedMany(name string) []*Record {
	recs, ok := r.values[name].([]*Record)
	if !ok || recs == nil {
		return nil
	}
	out := make([]*Record, len(recs))
	copy(out, recs)
	return out
}

// ToMap normalizes the record to a generic map. Scalars keep their cast Go
// types; embedded records become nested maps. Feeding the result back through
// the same validator reproduces the record.
func (r *Record) ToMap() map[string]any {
	if r == nil {
		return nil
	}
	out := make(map[string]any, len(r.values))
	for _, f := range r.definition.Fields {
		switch v := r.values[f.Name].(type) {
		case *Record:
			if v == nil {
				out[f.Name] = nil
			} else {
				out[f.Name] = v.ToMap()
			}
		case []*Record:
			items := make([]any, len(v))
			for i, item := range v {
				items[i] = item.ToMap()
			}
			out[f.Name] = items
		default:
			out[f.Name] = detach(v)
		}
	}
	return out
}

// detach copies slices and maps so callers cannot reach the record's storage.
func detach(v any) any {
	switch t := v.(type) {
	case []any:
		if t == nil {
			return t
		}
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = detach(item)
		}
		return items
	case map[string]any:
		if t == nil {
			return t
		}
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[k] = detach(item)
		}
		return m
	case []*Record:
		if t == nil {
			return t
		}
		recs := make([]*Record, len(t))
		copy(recs, t)
		return recs
	default:
		return v
	}
}

// Decode copies the record into target, a pointer to a struct or map. Struct
// fields are matched by their `json` tag, falling back to the field name.
func (r *Record) Decode(target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           target,
		WeaklyTypedInput: false,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(r.ToMap()); err != nil {
		return fmt.Errorf("failed to decode %s record: %w", r.definition.Name, err)
	}
	return nil
}
