package internal

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lychee-technology/schemata"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_Normalize(t *testing.T) {
	c := NewCodec()

	type payload struct {
		Title string `json:"title"`
		Likes int    `json:"likes"`
	}

	tests := []struct {
		name    string
		input   any
		want    map[string]any
		wantErr bool
	}{
		{name: "map", input: map[string]any{"a": 1}, want: map[string]any{"a": 1}},
		{name: "typed map", input: map[string]string{"a": "b"}, want: map[string]any{"a": "b"}},
		{name: "json string", input: `{"a": 1}`, want: map[string]any{"a": float64(1)}},
		{name: "json bytes", input: []byte(`{"a": true}`), want: map[string]any{"a": true}},
		{name: "struct", input: payload{Title: "t", Likes: 2}, want: map[string]any{"title": "t", "likes": float64(2)}},
		{name: "nil", input: nil, wantErr: true},
		{name: "json array", input: `[1]`, wantErr: true},
		{name: "invalid json", input: `{`, wantErr: true},
		{name: "scalar", input: 5, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Normalize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCodec_DecodeStream(t *testing.T) {
	c := NewCodec()

	docs, err := c.DecodeStream([]byte(`[{"a": 1}, {"a": 2}]`))
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = c.DecodeStream([]byte("{\"a\": 1}\n{\"a\": 2}\n\n{\"a\": 3}\n"))
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"a": float64(1)},
		map[string]any{"a": float64(2)},
		map[string]any{"a": float64(3)},
	}, docs)

	docs, err = c.DecodeStream(nil)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = c.DecodeStream([]byte(`{"a": 1} {`))
	assert.Error(t, err)
}

func TestCodec_DumpTypedValues(t *testing.T) {
	id := uuid.MustParse("8c3f1a4e-2b9d-4c1e-9f5a-7d6e5c4b3a21")
	def := schemata.NewDefinition("event").
		Field("id", schemata.Scalar(schemata.KindBinaryID)).
		Field("amount", schemata.Scalar(schemata.KindDecimal)).
		Field("day", schemata.Scalar(schemata.KindDate)).
		Field("at", schemata.Scalar(schemata.KindTimeUsec)).
		Field("local", schemata.Scalar(schemata.KindNaiveDatetime)).
		Field("stamp", schemata.Scalar(schemata.KindUTCDatetime)).
		Field("precise", schemata.Scalar(schemata.KindUTCDatetimeUsec)).
		Field("level", schemata.IntEnum(schemata.EnumValue{Name: "low", Value: 1}, schemata.EnumValue{Name: "high", Value: 2})).
		Field("count", schemata.Integer()).
		MustBuild()

	ts := time.Date(2024, 3, 5, 10, 20, 30, 123456000, time.UTC)
	rec := schemata.NewRecord(def, map[string]any{
		"id":      id,
		"amount":  decimal.RequireFromString("12.50"),
		"day":     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		"at":      time.Date(0, 1, 1, 10, 20, 30, 123456000, time.UTC),
		"local":   time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC),
		"stamp":   ts.Truncate(time.Second),
		"precise": ts,
		"level":   "high",
		"count":   int64(4),
	})

	tree, err := NewCodec().Dump(rec)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":      "8c3f1a4e-2b9d-4c1e-9f5a-7d6e5c4b3a21",
		"amount":  "12.5",
		"day":     "2024-03-05",
		"at":      "10:20:30.123456",
		"local":   "2024-03-05T10:20:30",
		"stamp":   "2024-03-05T10:20:30Z",
		"precise": "2024-03-05T10:20:30.123456Z",
		"level":   float64(2),
		"count":   float64(4),
	}, tree)
}

func TestCodec_DumpNested(t *testing.T) {
	v := newTestStructural(t, testPost)
	rec, report, err := v.Validate(validPostInput())
	require.NoError(t, err)
	require.Nil(t, report)

	tree, err := NewCodec().Dump(rec)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"name": "ada", "email": "ada@example.com"}, tree["author"])
	assert.Equal(t, []any{
		map[string]any{"body": "nice", "score": float64(5)},
		map[string]any{"body": "meh", "score": nil},
	}, tree["comments"])
	assert.Equal(t, float64(2), tree["priority"])
	assert.Equal(t, "published", tree["status"])

	_, err = NewCodec().Dump(nil)
	assert.Error(t, err)
}

func TestCodec_ToJSONTreeKeepsUndeclaredKeys(t *testing.T) {
	tree, err := NewCodec().ToJSONTree(testUser, map[string]any{"name": "a", "extra": []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "a", "extra": []any{"x"}}, tree)
}
