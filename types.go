package schemata

import (
	"fmt"
	"strings"
)

// Kind represents supported scalar field kinds.
type Kind string

const (
	KindBinary            Kind = "binary"
	KindBinaryID          Kind = "binary_id" // uuid
	KindBoolean           Kind = "boolean"
	KindFloat             Kind = "float"
	KindID                Kind = "id" // integer alias
	KindInteger           Kind = "integer"
	KindString            Kind = "string"
	KindMap               Kind = "map"
	KindDecimal           Kind = "decimal"
	KindDate              Kind = "date"
	KindTime              Kind = "time"
	KindTimeUsec          Kind = "time_usec"
	KindNaiveDatetime     Kind = "naive_datetime"
	KindNaiveDatetimeUsec Kind = "naive_datetime_usec"
	KindUTCDatetime       Kind = "utc_datetime"
	KindUTCDatetimeUsec   Kind = "utc_datetime_usec"
)

var allKinds = []Kind{
	KindBinary, KindBinaryID, KindBoolean, KindFloat, KindID, KindInteger, KindString, KindMap,
	KindDecimal, KindDate, KindTime, KindTimeUsec, KindNaiveDatetime, KindNaiveDatetimeUsec,
	KindUTCDatetime, KindUTCDatetimeUsec,
}

// Kinds returns every scalar kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// ParseKind resolves a kind name. "text" is accepted as an alias of "string".
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "text" {
		return KindString, nil
	}
	for _, k := range allKinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q", name)
}

// IsTerminal reports whether values of the kind cannot contain nested entities.
// Every scalar kind is terminal, including map.
func (k Kind) IsTerminal() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsNumeric reports whether numeric JSON Schema bounds apply to the kind.
func (k Kind) IsNumeric() bool {
	return k == KindInteger || k == KindID || k == KindFloat
}

// IsTextual reports whether string JSON Schema constraints apply to the kind.
func (k Kind) IsTextual() bool {
	return k == KindString || k == KindBinary
}

// FieldType is the closed set of field types: ScalarType, EntityType, ArrayType
// and EnumType.
type FieldType interface {
	fmt.Stringer
	isFieldType()
}

// ScalarType is a terminal value of a fixed kind.
type ScalarType struct {
	Kind Kind
}

// EntityType embeds another definition. The referencing definition only reads
// the referenced one.
type EntityType struct {
	Ref *Definition
}

// ArrayType is a homogeneous collection of scalars, entities or enum values.
type ArrayType struct {
	Inner FieldType
}

// EnumType is either a set of symbols (serialized as strings) or a mapping of
// symbols to integers (serialized as integers).
type EnumType struct {
	Values []EnumValue
	// Integer is set when the enum is backed by integers.
	Integer bool
}

// EnumValue is one enum member.
type EnumValue struct {
	Name  string
	Value int64
}

func (ScalarType) isFieldType() {}
func (EntityType) isFieldType() {}
func (ArrayType) isFieldType()  {}
func (EnumType) isFieldType()   {}

func (t ScalarType) String() string { return string(t.Kind) }

func (t EntityType) String() string {
	if t.Ref == nil {
		return "object(<nil>)"
	}
	return "object(" + t.Ref.Name + ")"
}

func (t ArrayType) String() string {
	if t.Inner == nil {
		return "array(<nil>)"
	}
	return "array(" + t.Inner.String() + ")"
}

func (t EnumType) String() string {
	names := make([]string, len(t.Values))
	for i, v := range t.Values {
		if t.Integer {
			names[i] = fmt.Sprintf("%s=%d", v.Name, v.Value)
		} else {
			names[i] = v.Name
		}
	}
	return "enum(" + strings.Join(names, ",") + ")"
}

// Symbols returns the enum member names in declaration order.
func (t EnumType) Symbols() []string {
	out := make([]string, len(t.Values))
	for i, v := range t.Values {
		out[i] = v.Name
	}
	return out
}

// Lookup finds a member by name.
func (t EnumType) Lookup(name string) (EnumValue, bool) {
	for _, v := range t.Values {
		if v.Name == name {
			return v, true
		}
	}
	return EnumValue{}, false
}

// LookupValue finds a member of an integer-backed enum by its integer.
func (t EnumType) LookupValue(value int64) (EnumValue, bool) {
	if !t.Integer {
		return EnumValue{}, false
	}
	for _, v := range t.Values {
		if v.Value == value {
			return v, true
		}
	}
	return EnumValue{}, false
}

func (t EnumType) validate() error {
	if len(t.Values) == 0 {
		return fmt.Errorf("enum must declare at least one value")
	}
	names := make(map[string]struct{}, len(t.Values))
	values := make(map[int64]struct{}, len(t.Values))
	for _, v := range t.Values {
		if v.Name == "" {
			return fmt.Errorf("enum value name cannot be empty")
		}
		if _, dup := names[v.Name]; dup {
			return fmt.Errorf("duplicate enum value %q", v.Name)
		}
		names[v.Name] = struct{}{}
		if t.Integer {
			if _, dup := values[v.Value]; dup {
				return fmt.Errorf("duplicate enum integer %d", v.Value)
			}
			values[v.Value] = struct{}{}
		}
	}
	return nil
}

// Scalar returns the scalar type for kind.
func Scalar(kind Kind) FieldType { return ScalarType{Kind: kind} }

// Text is shorthand for Scalar(KindString).
func Text() FieldType { return ScalarType{Kind: KindString} }

// Integer is shorthand for Scalar(KindInteger).
func Integer() FieldType { return ScalarType{Kind: KindInteger} }

// Float is shorthand for Scalar(KindFloat).
func Float() FieldType { return ScalarType{Kind: KindFloat} }

// Boolean is shorthand for Scalar(KindBoolean).
func Boolean() FieldType { return ScalarType{Kind: KindBoolean} }

// Object embeds def.
func Object(def *Definition) FieldType { return EntityType{Ref: def} }

// ArrayOf returns a homogeneous array of inner.
func ArrayOf(inner FieldType) FieldType { return ArrayType{Inner: inner} }

// Enum returns a string-backed enum of symbols.
func Enum(symbols ...string) FieldType {
	values := make([]EnumValue, len(symbols))
	for i, s := range symbols {
		values[i] = EnumValue{Name: s}
	}
	return EnumType{Values: values}
}

// IntEnum returns an integer-backed enum.
func IntEnum(values ...EnumValue) FieldType {
	out := make([]EnumValue, len(values))
	copy(out, values)
	return EnumType{Values: out, Integer: true}
}

// IsEmbedded reports whether a field of type t is validated recursively rather
// than cast directly: entities and arrays of entities.
func IsEmbedded(t FieldType) bool {
	switch ft := t.(type) {
	case EntityType:
		return true
	case ArrayType:
		_, ok := ft.Inner.(EntityType)
		return ok
	default:
		return false
	}
}

func validateFieldType(t FieldType) error {
	switch ft := t.(type) {
	case ScalarType:
		if !ft.Kind.IsTerminal() {
			return fmt.Errorf("unknown kind %q", ft.Kind)
		}
	case EntityType:
		if ft.Ref == nil {
			return fmt.Errorf("object reference cannot be nil")
		}
	case ArrayType:
		switch inner := ft.Inner.(type) {
		case ScalarType, EntityType, EnumType:
			return validateFieldType(inner)
		case nil:
			return fmt.Errorf("array inner type cannot be nil")
		default:
			return fmt.Errorf("unsupported array inner type %s", inner)
		}
	case EnumType:
		return ft.validate()
	case nil:
		return fmt.Errorf("field type cannot be nil")
	default:
		return fmt.Errorf("unsupported field type %T", t)
	}
	return nil
}
