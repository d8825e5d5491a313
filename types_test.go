package schemata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{input: "string", want: KindString},
		{input: "text", want: KindString},
		{input: " Integer ", want: KindInteger},
		{input: "utc_datetime_usec", want: KindUTCDatetimeUsec},
		{input: "binary_id", want: KindBinaryID},
		{input: "bigint", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKinds(t *testing.T) {
	kinds := Kinds()
	assert.Len(t, kinds, 16)
	for _, k := range kinds {
		assert.True(t, k.IsTerminal(), k)
	}
	assert.False(t, Kind("bigint").IsTerminal())

	kinds[0] = "mutated"
	assert.Equal(t, KindBinary, Kinds()[0])
}

func TestKind_Groups(t *testing.T) {
	assert.True(t, KindInteger.IsNumeric())
	assert.True(t, KindID.IsNumeric())
	assert.True(t, KindFloat.IsNumeric())
	assert.False(t, KindDecimal.IsNumeric())

	assert.True(t, KindString.IsTextual())
	assert.True(t, KindBinary.IsTextual())
	assert.False(t, KindDate.IsTextual())
}

func TestFieldType_String(t *testing.T) {
	user := NewDefinition("user").Field("name", Text()).MustBuild()

	tests := []struct {
		name string
		typ  FieldType
		want string
	}{
		{name: "scalar", typ: Integer(), want: "integer"},
		{name: "entity", typ: Object(user), want: "object(user)"},
		{name: "nil entity", typ: EntityType{}, want: "object(<nil>)"},
		{name: "array of entity", typ: ArrayOf(Object(user)), want: "array(object(user))"},
		{name: "array of scalar", typ: ArrayOf(Boolean()), want: "array(boolean)"},
		{name: "symbol enum", typ: Enum("draft", "published"), want: "enum(draft,published)"},
		{name: "integer enum", typ: IntEnum(EnumValue{Name: "low", Value: 1}, EnumValue{Name: "high", Value: 2}), want: "enum(low=1,high=2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestEnumType_Lookup(t *testing.T) {
	status := Enum("draft", "published").(EnumType)
	assert.Equal(t, []string{"draft", "published"}, status.Symbols())

	v, ok := status.Lookup("published")
	assert.True(t, ok)
	assert.Equal(t, "published", v.Name)

	_, ok = status.Lookup("archived")
	assert.False(t, ok)

	_, ok = status.LookupValue(0)
	assert.False(t, ok, "symbol enums have no integer values")

	priority := IntEnum(EnumValue{Name: "low", Value: 1}, EnumValue{Name: "high", Value: 2}).(EnumType)
	v, ok = priority.LookupValue(2)
	assert.True(t, ok)
	assert.Equal(t, "high", v.Name)

	_, ok = priority.LookupValue(3)
	assert.False(t, ok)
}

func TestIsEmbedded(t *testing.T) {
	user := NewDefinition("user").Field("name", Text()).MustBuild()

	assert.True(t, IsEmbedded(Object(user)))
	assert.True(t, IsEmbedded(ArrayOf(Object(user))))
	assert.False(t, IsEmbedded(ArrayOf(Text())))
	assert.False(t, IsEmbedded(Enum("a")))
	assert.False(t, IsEmbedded(Scalar(KindMap)))
}

func TestValidateFieldType(t *testing.T) {
	tests := []struct {
		name    string
		typ     FieldType
		wantErr string
	}{
		{name: "nil", typ: nil, wantErr: "cannot be nil"},
		{name: "unknown kind", typ: Scalar("bigint"), wantErr: "unknown kind"},
		{name: "nil reference", typ: Object(nil), wantErr: "reference cannot be nil"},
		{name: "nil array inner", typ: ArrayType{}, wantErr: "inner type cannot be nil"},
		{name: "nested array", typ: ArrayOf(ArrayOf(Text())), wantErr: "unsupported array inner type"},
		{name: "empty enum", typ: Enum(), wantErr: "at least one value"},
		{name: "duplicate symbol", typ: Enum("a", "a"), wantErr: "duplicate enum value"},
		{name: "duplicate integer", typ: IntEnum(EnumValue{Name: "a", Value: 1}, EnumValue{Name: "b", Value: 1}), wantErr: "duplicate enum integer"},
		{name: "blank symbol", typ: Enum(""), wantErr: "name cannot be empty"},
		{name: "valid array of enum", typ: ArrayOf(Enum("a", "b"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFieldType(tt.typ)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
