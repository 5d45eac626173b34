package typedesc

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

var errTrailingData = errors.New("unexpected data after top-level JSON value")

// ParseJSON decodes a single JSON document. Integral numbers that fit in int64 decode to
// int64 and keep every digit; all other numbers, including integers beyond int64, decode
// to float64.
func ParseJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return canonicalNumbers(v), nil
}

// Canonicalize converts an arbitrary Go value (structs, typed slices and maps, pointers,
// sized integers) into the shapes produced by ParseJSON. Structs follow their json tags.
func Canonicalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, int64, float64:
		return v, nil
	case float32:
		return float64(t), nil
	case json.Number:
		return canonicalNumbers(t), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return ParseJSON(string(b))
}

func canonicalNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t
	case []any:
		for i := range t {
			t[i] = canonicalNumbers(t[i])
		}
		return t
	case map[string]any:
		for k, val := range t {
			t[k] = canonicalNumbers(val)
		}
		return t
	}
	return v
}
