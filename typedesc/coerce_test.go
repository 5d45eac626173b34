package typedesc

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var item = RecordOf("Item",
	Field("name", String()),
	OptionalField("price", Float()),
)

func TestCoerce_Primitives(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   any
		d    Descriptor
		want any
	}{
		{"string to float", "7", Float(), 7.0},
		{"padded string to int", " 42 ", Int(), int64(42)},
		{"float truncates to int", 7.9, Int(), int64(7)},
		{"bool to int", true, Int(), int64(1)},
		{"int to float", int64(3), Float(), 3.0},
		{"int to string", int64(7), String(), "7"},
		{"float to string", 3.5, String(), "3.5"},
		{"bool to string", true, String(), "true"},
		{"sequence to string", []any{int64(1), "a"}, String(), `[1,"a"]`},
		{"text to bool", "true", Bool(), true},
		{"zero to bool", int64(0), Bool(), false},
		{"nonzero float to bool", 0.5, Bool(), true},
		{"sized int", int32(5), Int(), int64(5)},
		{"pointer", func() *int { n := 9; return &n }(), Int(), int64(9)},
		{"leading zeros stay decimal", "010", Int(), int64(10)},
		{"signed text to int", "-42", Int(), int64(-42)},
		{"negative float truncates toward zero", -7.9, Int(), int64(-7)},
		{"min int64 float", -9223372036854775808.0, Int(), int64(math.MinInt64)},
		{"max uint fitting int64", uint64(math.MaxInt64), Int(), int64(math.MaxInt64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.in, tt.d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerce_PrimitiveFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   any
		d    Descriptor
	}{
		{"non-numeric string to int", "abc", Int()},
		{"fractional string to int", "7.5", Int()},
		{"non-numeric string to float", "seven", Float()},
		{"unparseable bool", "maybe", Bool()},
		{"null to string", nil, String()},
		{"null to int", nil, Int()},
		{"sequence to int", []any{int64(1)}, Int()},
		{"hex text to int", "0x10", Int()},
		{"octal prefix text to int", "0o10", Int()},
		{"underscored text to int", "1_000", Int()},
		{"text beyond int64", "9223372036854775808", Int()},
		{"float above int64", 1e20, Int()},
		{"float below int64", -1e19, Int()},
		{"float at 2^63", 9223372036854775808.0, Int()},
		{"NaN to int", math.NaN(), Int()},
		{"infinity to int", math.Inf(1), Int()},
		{"uint64 beyond int64", uint64(math.MaxUint64), Int()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Coerce(tt.in, tt.d)
			require.Error(t, err)
			assert.True(t, IsCoercionError(err))
		})
	}
}

func TestCoerce_Dynamic(t *testing.T) {
	t.Parallel()
	in := map[string]any{"k": []any{1, 2}}
	got, err := Coerce(in, Dynamic())
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestCoerce_Sequence(t *testing.T) {
	t.Parallel()
	got, err := Coerce([]any{"1", int64(2), 3.0}, SequenceOf(Int()))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, got)

	got, err = Coerce("[1, 2.5]", SequenceOf(Float()))
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.5}, got)

	got, err = Coerce([]string{"a", "b"}, Sequence())
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, got)
}

func TestCoerce_SequenceFailures(t *testing.T) {
	t.Parallel()
	_, err := Coerce("not json", SequenceOf(Int()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a JSON array")

	_, err = Coerce(`{"a":1}`, SequenceOf(Int()))
	require.Error(t, err)

	_, err = Coerce(int64(5), Sequence())
	require.Error(t, err)

	_, err = Coerce([]any{"1", "x", "3"}, SequenceOf(Int()))
	require.Error(t, err)
	var ce *CoercionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "[1]", ce.Path)
}

func TestCoerce_Mapping(t *testing.T) {
	t.Parallel()
	got, err := Coerce(`{"a": 1, "b": "x"}`, MappingOf(String(), Int()))
	require.NoError(t, err)
	// Values are not coerced against the declared value type.
	assert.Equal(t, map[string]any{"a": int64(1), "b": "x"}, got)

	got, err = Coerce(map[string]int{"n": 2}, Mapping())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 2}, got)

	_, err = Coerce("[1]", Mapping())
	require.Error(t, err)
	_, err = Coerce(int64(1), Mapping())
	require.Error(t, err)
}

func TestCoerce_Union(t *testing.T) {
	t.Parallel()
	got, err := Coerce("7", UnionOf(Int(), String()))
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)

	got, err = Coerce("7", UnionOf(String(), Int()))
	require.NoError(t, err)
	assert.Equal(t, "7", got)

	got, err = Coerce("abc", UnionOf(Int(), String()))
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	_, err = Coerce("maybe", UnionOf(Int(), Bool()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "union int | bool")
}

func TestCoerce_Record(t *testing.T) {
	t.Parallel()
	got, err := Coerce(map[string]any{"name": "apple", "price": int64(3)}, item)
	require.NoError(t, err)
	assert.Equal(t, Record{"name": "apple", "price": 3.0}, got)

	got, err = Coerce(map[string]any{"name": "milk"}, item)
	require.NoError(t, err)
	assert.Equal(t, Record{"name": "milk"}, got)

	got, err = Coerce(map[string]any{"name": "milk", "price": nil}, item)
	require.NoError(t, err)
	assert.Equal(t, Record{"name": "milk", "price": nil}, got)
}

func TestCoerce_RecordStrictFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		in     any
		reason string
	}{
		{"missing field", map[string]any{"price": 1.0}, "missing required field name"},
		{"extra field", map[string]any{"name": "a", "colour": "red"}, "unknown fields colour"},
		{"not a mapping", "apple", "requires a mapping"},
		{"bad field", map[string]any{"name": "a", "price": "cheap"}, "price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Coerce(tt.in, item)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestCoerce_RecordBestEffort(t *testing.T) {
	t.Parallel()
	in := map[string]any{"name": "a", "colour": "red"}
	got, err := BestEffort.Coerce(in, item)
	require.NoError(t, err)
	_, isRecord := got.(Record)
	assert.False(t, isRecord, "unconstructed value must not masquerade as a Record")
	assert.Equal(t, in, got)

	got, err = BestEffort.Coerce([]any{map[string]any{"name": "a"}}, SequenceOf(item))
	require.NoError(t, err)
	assert.Equal(t, []any{Record{"name": "a"}}, got)
}

func TestCoerce_NestedPath(t *testing.T) {
	t.Parallel()
	in := []any{
		map[string]any{"name": "a", "price": 1.0},
		map[string]any{"name": "b", "price": "x"},
	}
	_, err := Coerce(in, SequenceOf(item))
	var ce *CoercionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "[1].price", ce.Path)
	assert.Contains(t, err.Error(), "[1].price: cannot coerce")
}

func TestCoerce_Custom(t *testing.T) {
	t.Parallel()
	date := Custom("Date", func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, errors.New("date must be text")
		}
		return time.Parse(time.DateOnly, s)
	})
	got, err := Coerce("2024-12-25", date)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), got)

	_, err = Coerce("Christmas", date)
	require.Error(t, err)

	got, err = BestEffort.Coerce("Christmas", date)
	require.NoError(t, err)
	assert.Equal(t, "Christmas", got)

	got, err = Coerce(int64(3), Custom("Opaque", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
}

func TestMode_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "strict", Strict.String())
	assert.Equal(t, "best-effort", BestEffort.String())
}
