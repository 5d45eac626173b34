// Package typedesc describes declared types as explicit descriptors and coerces loosely
// typed values (decoded JSON, caller arguments, raw model text) into them.
//
// A Descriptor is one of Dynamic, String, Int, Float, Bool, Sequence, Mapping, Union,
// Record or Custom. Coercion is recursive over sequences, unions and records. Mappings
// are only checked for shape; their entries pass through untouched.
//
// Two modes exist. Strict (the default) fails whenever a record or custom value cannot
// be constructed. BestEffort returns such a value unchanged instead, so callers must not
// assume the result matches the declared type.
package typedesc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Mode selects how record and custom construction failures are handled.
type Mode int

const (
	// Strict reports every construction failure as a CoercionError.
	Strict Mode = iota
	// BestEffort returns the original value when a record or custom type cannot be built.
	BestEffort
)

func (m Mode) String() string {
	if m == BestEffort {
		return "best-effort"
	}
	return "strict"
}

// Record is a constructed record value: exactly the declared fields that were present.
// A best-effort fallback never produces a Record, it returns the input unchanged.
type Record map[string]any

// Coerce converts v to d in Strict mode.
func Coerce(v any, d Descriptor) (any, error) {
	return Strict.Coerce(v, d)
}

// Coerce converts v to d. Rules apply by descriptor kind: primitives parse or convert v,
// Dynamic returns v unchanged, sequences and mappings accept native values or JSON text,
// unions try alternatives left to right, records are built field by field, and custom
// types call their constructor.
func (m Mode) Coerce(v any, d Descriptor) (any, error) {
	switch d.kind {
	case KindString, KindInt, KindFloat, KindBool:
		return coercePrimitive(v, d)
	case KindDynamic:
		return v, nil
	case KindSequence:
		return m.coerceSequence(v, d)
	case KindMapping:
		return coerceMapping(v, d)
	case KindUnion:
		return m.coerceUnion(v, d)
	case KindRecord:
		rec, err := m.constructRecord(v, d)
		if err == nil {
			return rec, nil
		}
		// Records have no single-argument constructor; best effort keeps the input.
		if m == BestEffort {
			return v, nil
		}
		return nil, err
	case KindCustom:
		return m.coerceCustom(v, d)
	}
	return nil, newError(d, v, "unknown descriptor kind "+d.kind.String())
}

func coercePrimitive(v any, d Descriptor) (any, error) {
	v = deref(v)
	if v == nil {
		return nil, newError(d, v, "value is null")
	}
	if n, ok := v.(json.Number); ok {
		v = canonicalNumbers(n)
	}
	if s, ok := v.(string); ok && d.kind != KindString {
		v = strings.TrimSpace(s)
	}
	var (
		out any
		err error
	)
	switch d.kind {
	case KindString:
		out, err = toString(v)
	case KindInt:
		out, err = toInt(v)
	case KindFloat:
		out, err = cast.ToFloat64E(v)
	case KindBool:
		out, err = toBool(v)
	}
	if err != nil {
		ce := newError(d, v, "")
		ce.Err = err
		return nil, ce
	}
	return out, nil
}

func toString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []any, map[string]any, Record:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("unable to render %T as string", v)
	}
	return string(b), nil
}

// toInt accepts decimal text only and integral conversions that fit in int64;
// floats truncate toward zero.
func toInt(v any) (int64, error) {
	switch t := v.(type) {
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a decimal integer", t)
		}
		return n, nil
	case float64:
		return floatToInt(t)
	case float32:
		return floatToInt(float64(t))
	case uint:
		return uintToInt(uint64(t))
	case uint64:
		return uintToInt(t)
	case uintptr:
		return uintToInt(uint64(t))
	}
	return cast.ToInt64E(v)
}

func floatToInt(f float64) (int64, error) {
	// -2^63 is exact in float64; 2^63 is the first value past MaxInt64.
	if math.IsNaN(f) || f < math.MinInt64 || f >= -math.MinInt64 {
		return 0, fmt.Errorf("%v is out of int64 range", f)
	}
	return int64(f), nil
}

func uintToInt(u uint64) (int64, error) {
	if u > math.MaxInt64 {
		return 0, fmt.Errorf("%d is out of int64 range", u)
	}
	return int64(u), nil
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case int64:
		return t != 0, nil
	case float64:
		return t != 0, nil
	}
	return cast.ToBoolE(v)
}

func (m Mode) coerceSequence(v any, d Descriptor) (any, error) {
	items, ok := asSlice(v)
	if !ok {
		s, isText := v.(string)
		if !isText {
			return nil, newError(d, v, "value is not a sequence")
		}
		parsed, err := ParseJSON(s)
		if err != nil {
			ce := newError(d, v, "text is not a JSON array")
			ce.Err = err
			return nil, ce
		}
		if items, ok = parsed.([]any); !ok {
			return nil, newError(d, v, "text is not a JSON array")
		}
	}
	out := make([]any, len(items))
	if d.elem == nil {
		copy(out, items)
		return out, nil
	}
	for i, item := range items {
		cv, err := m.Coerce(item, *d.elem)
		if err != nil {
			return nil, withPath(err, fmt.Sprintf("[%d]", i))
		}
		out[i] = cv
	}
	return out, nil
}

func coerceMapping(v any, d Descriptor) (any, error) {
	if m, ok := asMap(v); ok {
		return m, nil
	}
	s, isText := v.(string)
	if !isText {
		return nil, newError(d, v, "value is not a mapping")
	}
	parsed, err := ParseJSON(s)
	if err != nil {
		ce := newError(d, v, "text is not a JSON object")
		ce.Err = err
		return nil, ce
	}
	m, ok := parsed.(map[string]any)
	if !ok {
		return nil, newError(d, v, "text is not a JSON object")
	}
	return m, nil
}

func (m Mode) coerceUnion(v any, d Descriptor) (any, error) {
	errs := make([]error, 0, len(d.alts))
	for _, alt := range d.alts {
		out, err := m.Coerce(v, alt)
		if err == nil {
			return out, nil
		}
		errs = append(errs, err)
	}
	ce := newError(d, v, "no alternative of union "+d.String()+" matched")
	ce.Err = errors.Join(errs...)
	return nil, ce
}

func (m Mode) constructRecord(v any, d Descriptor) (Record, error) {
	src, ok := asMap(v)
	if !ok {
		return nil, newError(d, v, "record "+d.name+" requires a mapping")
	}
	declared := make(map[string]struct{}, len(d.fields))
	for _, f := range d.fields {
		declared[f.Name] = struct{}{}
	}
	var unknown []string
	for k := range src {
		if _, ok := declared[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, newError(d, v, "unknown fields "+strings.Join(unknown, ", "))
	}
	out := make(Record, len(d.fields))
	for _, f := range d.fields {
		fv, present := src[f.Name]
		if !present {
			if f.Required {
				return nil, newError(d, v, "missing required field "+f.Name)
			}
			continue
		}
		if fv == nil && !f.Required {
			out[f.Name] = nil
			continue
		}
		cv, err := m.Coerce(fv, f.Type)
		if err != nil {
			return nil, withPath(err, "."+f.Name)
		}
		out[f.Name] = cv
	}
	return out, nil
}

func (m Mode) coerceCustom(v any, d Descriptor) (any, error) {
	if d.construct == nil {
		return v, nil
	}
	out, err := d.construct(v)
	if err == nil {
		return out, nil
	}
	if m == BestEffort {
		return v, nil
	}
	ce := newError(d, v, "")
	ce.Err = err
	return nil, ce
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

// asSlice accepts []any and any other slice or array except byte slices.
func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(deref(v))
	if !rv.IsValid() {
		return nil, false
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// asMap accepts map[string]any, Record and any map keyed by strings.
func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Record:
		return map[string]any(t), true
	}
	rv := reflect.ValueOf(deref(v))
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
