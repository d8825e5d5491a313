package internal

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lychee-technology/schemata"
	"github.com/shopspring/decimal"
)

// Time layouts used when serializing time kinds.
const (
	layoutDate          = "2006-01-02"
	layoutTime          = "15:04:05"
	layoutTimeUsec      = "15:04:05.000000"
	layoutNaive         = "2006-01-02T15:04:05"
	layoutNaiveUsec     = "2006-01-02T15:04:05.000000"
	layoutUTCDatetime   = "2006-01-02T15:04:05Z"
	layoutUTCDatetimeUs = "2006-01-02T15:04:05.000000Z"
)

// Codec converts records and generic maps to canonical JSON value trees and
// back. Canonical trees contain only map[string]any, []any, string, float64,
// bool and nil.
type Codec struct{}

// NewCodec creates a Codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Marshal encodes v as JSON.
func (c *Codec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, schemata.NewCodecError(schemata.ErrCodeInvalidJSON, "failed to marshal JSON", err)
	}
	return data, nil
}

// Decode parses JSON into a generic value tree.
func (c *Codec) Decode(data []byte) (any, error) {
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, schemata.NewCodecError(schemata.ErrCodeInvalidJSON, "failed to unmarshal JSON data", err)
	}
	return out, nil
}

// DecodeObject parses a JSON object.
func (c *Codec) DecodeObject(data []byte) (map[string]any, error) {
	value, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil, schemata.NewCodecError(schemata.ErrCodeUnsupportedInput,
			fmt.Sprintf("expected a JSON object, got %s", jsonTypeName(value)), nil)
	}
	return m, nil
}

// DecodeStream parses a sequence of JSON values, such as newline-delimited
// JSON or a single top-level array.
func (c *Codec) DecodeStream(data []byte) ([]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		value, err := c.Decode(trimmed)
		if err != nil {
			return nil, err
		}
		return value.([]any), nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var out []any
	for dec.More() {
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, schemata.NewCodecError(schemata.ErrCodeInvalidJSON, "failed to decode JSON stream", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Normalize reads input as a generic map: maps are returned as-is, records are
// flattened with ToMap, JSON text is decoded, and other values are serialized and
// decoded.
func (c *Codec) Normalize(input any) (map[string]any, error) {
	switch v := input.(type) {
	case nil:
		return nil, schemata.NewCodecError(schemata.ErrCodeUnsupportedInput, "input cannot be nil", nil)
	case map[string]any:
		return v, nil
	case *schemata.Record:
		if v == nil {
			return nil, schemata.NewCodecError(schemata.ErrCodeUnsupportedInput, "input cannot be nil", nil)
		}
		return v.ToMap(), nil
	case schemata.Record:
		return v.ToMap(), nil
	case []byte:
		return c.DecodeObject(v)
	case string:
		return c.DecodeObject([]byte(v))
	}
	if m, ok := toStringMap(input); ok {
		return m, nil
	}
	data, err := c.Marshal(input)
	if err != nil {
		return nil, err
	}
	return c.DecodeObject(data)
}

// Dump renders a record as a canonical JSON value tree.
func (c *Codec) Dump(rec *schemata.Record) (map[string]any, error) {
	if rec == nil {
		return nil, schemata.NewCodecError(schemata.ErrCodeUnsupportedInput, "record cannot be nil", nil)
	}
	return c.ToJSONTree(rec.Definition(), rec.ToMap())
}

// ToJSONTree serializes input, interpreted against def, to a canonical JSON
// value tree. Typed values (times, decimals, uuids, enum symbols of integer
// enums, records) are rendered the way they are stored in JSON; values that are
// already JSON-shaped pass through. Keys not declared by def are kept.
func (c *Codec) ToJSONTree(def *schemata.Definition, input any) (map[string]any, error) {
	m, err := c.Normalize(input)
	if err != nil {
		return nil, err
	}
	rendered := dumpObject(def, m)
	data, err := c.Marshal(rendered)
	if err != nil {
		return nil, err
	}
	return c.DecodeObject(data)
}

func dumpObject(def *schemata.Definition, m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, f := range def.Fields {
		v, ok := m[f.Name]
		if !ok {
			continue
		}
		out[f.Name] = dumpValue(f.Type, v)
	}
	return out
}

func dumpValue(t schemata.FieldType, v any) any {
	if v == nil {
		return nil
	}
	switch ft := t.(type) {
	case schemata.ScalarType:
		return dumpScalar(ft.Kind, v)
	case schemata.EnumType:
		if s, ok := v.(string); ok && ft.Integer {
			if member, found := ft.Lookup(s); found {
				return member.Value
			}
		}
		return v
	case schemata.EntityType:
		if sub, ok := embeddedInput(v); ok {
			return dumpObject(ft.Ref, sub)
		}
		return v
	case schemata.ArrayType:
		var items []any
		if recs, ok := v.([]*schemata.Record); ok {
			items = make([]any, len(recs))
			for i, r := range recs {
				items[i] = r
			}
		} else if s, ok := toSlice(v); ok {
			items = s
		} else {
			return v
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = dumpValue(ft.Inner, item)
		}
		return out
	default:
		return v
	}
}

func dumpScalar(kind schemata.Kind, v any) any {
	switch val := v.(type) {
	case time.Time:
		return formatTime(kind, val)
	case *time.Time:
		if val == nil {
			return nil
		}
		return formatTime(kind, *val)
	case decimal.Decimal:
		return val.String()
	case uuid.UUID:
		return val.String()
	case []byte:
		if kind == schemata.KindBinaryID {
			if id, ok := toUUID(val); ok {
				return id.String()
			}
		}
		return string(val)
	default:
		return v
	}
}

func formatTime(kind schemata.Kind, t time.Time) string {
	switch kind {
	case schemata.KindDate:
		return t.Format(layoutDate)
	case schemata.KindTime:
		return t.Format(layoutTime)
	case schemata.KindTimeUsec:
		return t.Format(layoutTimeUsec)
	case schemata.KindNaiveDatetime:
		return t.Format(layoutNaive)
	case schemata.KindNaiveDatetimeUsec:
		return t.Format(layoutNaiveUsec)
	case schemata.KindUTCDatetime:
		return t.UTC().Format(layoutUTCDatetime)
	case schemata.KindUTCDatetimeUsec:
		return t.UTC().Format(layoutUTCDatetimeUs)
	default:
		return t.Format(time.RFC3339Nano)
	}
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
