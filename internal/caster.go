package internal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/lychee-technology/schemata"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

const (
	msgInvalid = "is invalid"
	msgBlank   = "can't be blank"
)

// CastOptions configures one cast.
type CastOptions struct {
	// Permitted restricts the cast to these field names.
	Permitted []string
	// Required lists permitted fields that must be present and non-blank.
	Required []string
}

// Caster is the generic cast primitive: it coerces the permitted fields of an
// input map to their declared types and enforces presence of required fields.
// It never recurses into embedded definitions.
type Caster struct{}

// NewCaster creates a Caster.
func NewCaster() *Caster {
	return &Caster{}
}

// Cast returns the typed values of the permitted fields and a report of cast and
// required-field failures. Absent keys take the field's "default" option; blank
// strings are treated as nil.
func (c *Caster) Cast(def *schemata.Definition, input map[string]any, opts CastOptions) (map[string]any, *schemata.ErrorReport) {
	values := make(map[string]any, len(opts.Permitted))
	report := schemata.NewErrorReport(def.Name)

	for _, name := range opts.Permitted {
		field, ok := def.Fields.Lookup(name)
		if !ok {
			continue
		}

		raw, present := input[name]
		if !present {
			if dflt, ok := field.Options.Default(); ok {
				raw = dflt
			}
		}
		if isBlank(raw) {
			values[name] = nil
			continue
		}

		value, err := c.CastValue(field.Type, raw)
		if err != nil {
			report.Add(name, castError(field.Type))
			values[name] = nil
			continue
		}
		values[name] = value
	}

	for _, name := range opts.Required {
		if report.Has(name, "") {
			continue
		}
		if isBlank(values[name]) {
			report.Add(name, requiredError())
		}
	}

	return values, report
}

// CastValue coerces raw to a non-embedded field type.
func (c *Caster) CastValue(t schemata.FieldType, raw any) (any, error) {
	switch ft := t.(type) {
	case schemata.ScalarType:
		return castScalar(ft.Kind, raw)
	case schemata.EnumType:
		return castEnum(ft, raw)
	case schemata.ArrayType:
		items, ok := toSlice(raw)
		if !ok {
			return nil, fmt.Errorf("cannot convert %T to array", raw)
		}
		out := make([]any, len(items))
		for i, item := range items {
			if item == nil {
				return nil, fmt.Errorf("array element %d is null", i)
			}
			v, err := c.CastValue(ft.Inner, item)
			if err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case schemata.EntityType:
		return nil, fmt.Errorf("embedded field of type %s cannot be cast directly", ft)
	default:
		return nil, fmt.Errorf("unsupported field type %T", t)
	}
}

func castError(t schemata.FieldType) schemata.FieldError {
	return schemata.FieldError{
		Message: msgInvalid,
		Context: map[string]any{"validation": schemata.ValidationCast, "type": t.String()},
	}
}

func requiredError() schemata.FieldError {
	return schemata.FieldError{
		Message: msgBlank,
		Context: map[string]any{"validation": schemata.ValidationRequired},
	}
}

func castScalar(kind schemata.Kind, raw any) (any, error) {
	switch kind {
	case schemata.KindString, schemata.KindBinary:
		switch v := raw.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		default:
			return nil, fmt.Errorf("cannot convert %T to %s", raw, kind)
		}
	case schemata.KindBinaryID:
		id, ok := toUUID(raw)
		if !ok {
			return nil, fmt.Errorf("invalid UUID value: %v", raw)
		}
		return id, nil
	case schemata.KindBoolean:
		switch raw.(type) {
		case bool, string:
			return cast.ToBoolE(raw)
		default:
			return nil, fmt.Errorf("cannot convert %T to boolean", raw)
		}
	case schemata.KindInteger, schemata.KindID:
		return toInt64(raw)
	case schemata.KindFloat:
		switch v := raw.(type) {
		case bool:
			return nil, fmt.Errorf("cannot convert bool to float")
		case json.Number:
			return v.Float64()
		case string:
			return strconv.ParseFloat(strings.TrimSpace(v), 64)
		case decimal.Decimal:
			return v.InexactFloat64(), nil
		default:
			return cast.ToFloat64E(raw)
		}
	case schemata.KindMap:
		m, ok := toStringMap(raw)
		if !ok {
			return nil, fmt.Errorf("cannot convert %T to map", raw)
		}
		return cast.ToStringMapE(m)
	case schemata.KindDecimal:
		return toDecimal(raw)
	case schemata.KindDate, schemata.KindTime, schemata.KindTimeUsec,
		schemata.KindNaiveDatetime, schemata.KindNaiveDatetimeUsec,
		schemata.KindUTCDatetime, schemata.KindUTCDatetimeUsec:
		return castTime(kind, raw)
	default:
		return nil, fmt.Errorf("unsupported kind '%s'", kind)
	}
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case bool:
		return 0, fmt.Errorf("cannot convert bool to integer")
	case float64:
		return floatToInt64(v)
	case float32:
		return floatToInt64(float64(v))
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", v)
		}
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case decimal.Decimal:
		if !v.IsInteger() {
			return 0, fmt.Errorf("%s is not an integer", v)
		}
		if v.LessThan(minInt64) || v.GreaterThan(maxInt64) {
			return 0, fmt.Errorf("%s overflows int64", v)
		}
		return v.IntPart(), nil
	default:
		return cast.ToInt64E(raw)
	}
}

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// floatToInt64 rejects fractions and values outside [-2^63, 2^63).
func floatToInt64(v float64) (int64, error) {
	if !isIntegral(v) {
		return 0, fmt.Errorf("%v is not an integer", v)
	}
	if v < -9.223372036854775808e18 || v >= 9.223372036854775808e18 {
		return 0, fmt.Errorf("%v overflows int64", v)
	}
	return int64(v), nil
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		if v == nil {
			return decimal.Decimal{}, fmt.Errorf("nil decimal")
		}
		return *v, nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case bool:
		return decimal.Decimal{}, fmt.Errorf("cannot convert bool to decimal")
	default:
		i, err := cast.ToInt64E(raw)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromInt(i), nil
	}
}

func castEnum(t schemata.EnumType, raw any) (string, error) {
	if s, ok := raw.(string); ok {
		if v, found := t.Lookup(s); found {
			return v.Name, nil
		}
		return "", fmt.Errorf("%q is not a member of %s", s, t)
	}
	if t.Integer {
		if _, isBool := raw.(bool); !isBool {
			if i, err := toInt64(raw); err == nil {
				if v, found := t.LookupValue(i); found {
					return v.Name, nil
				}
			}
		}
	}
	return "", fmt.Errorf("%v is not a member of %s", raw, t)
}

var (
	dateLayouts  = []string{"2006-01-02", time.RFC3339Nano}
	clockLayouts = []string{"15:04:05.999999999", "15:04:05", "15:04", time.RFC3339Nano}
	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		time.RFC3339Nano,
		"2006-01-02",
	}
)

func castTime(kind schemata.Kind, raw any) (time.Time, error) {
	var t time.Time
	switch v := raw.(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return time.Time{}, fmt.Errorf("nil time")
		}
		t = *v
	case string:
		parsed, err := parseTimeString(kind, strings.TrimSpace(v))
		if err != nil {
			return time.Time{}, err
		}
		t = parsed
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to %s", raw, kind)
	}
	return normalizeTime(kind, t), nil
}

func parseTimeString(kind schemata.Kind, s string) (time.Time, error) {
	var layouts []string
	switch kind {
	case schemata.KindDate:
		layouts = dateLayouts
	case schemata.KindTime, schemata.KindTimeUsec:
		layouts = clockLayouts
	default:
		layouts = naiveLayouts
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, nil
		}
	}
	// cast understands a wider set of layouts
	parsed, err := cast.ToTimeE(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unsupported %s format: %s", kind, s)
	}
	return parsed, nil
}

// normalizeTime applies the precision and location rules of kind.
func normalizeTime(kind schemata.Kind, t time.Time) time.Time {
	switch kind {
	case schemata.KindDate:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case schemata.KindTime:
		return time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	case schemata.KindTimeUsec:
		return time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), truncateMicro(t.Nanosecond()), time.UTC)
	case schemata.KindNaiveDatetime:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	case schemata.KindNaiveDatetimeUsec:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), truncateMicro(t.Nanosecond()), time.UTC)
	case schemata.KindUTCDatetime:
		return t.UTC().Truncate(time.Second)
	case schemata.KindUTCDatetimeUsec:
		return t.UTC().Truncate(time.Microsecond)
	default:
		return t
	}
}

func truncateMicro(ns int) int {
	return ns - ns%1000
}
