package typedesc

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
)

var (
	customTypesMu sync.RWMutex
	customTypes   = map[reflect.Type]Descriptor{
		reflect.TypeFor[time.Time]():     String(),
		reflect.TypeFor[time.Duration](): Int(),
		reflect.TypeFor[json.Number]():   Float(),
	}
)

var (
	jsonMarshaler = reflect.TypeFor[json.Marshaler]()
	textMarshaler = reflect.TypeFor[encoding.TextMarshaler]()
)

// RegisterType maps a Go type to a Descriptor for For and ForType.
// emptyInstance is a value of the type to register (e.g. uuid.UUID{}); it must not be nil.
// Pointer fields (*T) use the same mapping as T; register the value type once.
// Call RegisterType at startup, before the first For.
func RegisterType(emptyInstance any, d Descriptor) {
	if emptyInstance == nil {
		panic("typedesc: RegisterType emptyInstance must not be nil")
	}
	customTypesMu.Lock()
	defer customTypesMu.Unlock()
	customTypes[reflect.TypeOf(emptyInstance)] = d
}

func registeredType(t reflect.Type) (Descriptor, bool) {
	customTypesMu.RLock()
	defer customTypesMu.RUnlock()
	d, ok := customTypes[t]
	return d, ok
}

// For derives a Descriptor from the Go type T, following encoding/json conventions:
// structs become records named after the type with fields from their json tags
// (omitempty, omitzero and pointer fields are optional), slices and arrays become sequences,
// maps with string keys become mappings, interfaces are Dynamic.
// Types implementing json.Marshaler or encoding.TextMarshaler are strings unless registered.
func For[T any]() (Descriptor, error) {
	return ForType(reflect.TypeFor[T]())
}

// MustFor is like For but panics on error. Use it for package-level declarations.
func MustFor[T any]() Descriptor {
	d, err := For[T]()
	if err != nil {
		panic(err)
	}
	return d
}

// ForType is For for a reflect.Type.
func ForType(t reflect.Type) (Descriptor, error) {
	if t == nil {
		return Dynamic(), nil
	}
	return forType(t, map[reflect.Type]bool{})
}

var errCycle = errors.New("cycle detected")

func forType(t reflect.Type, visiting map[reflect.Type]bool) (Descriptor, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if d, ok := registeredType(t); ok {
		return d, nil
	}
	if t.Kind() != reflect.Interface && (t.Implements(jsonMarshaler) || t.Implements(textMarshaler) ||
		reflect.PointerTo(t).Implements(textMarshaler)) {
		return String(), nil
	}

	switch t.Kind() {
	case reflect.String:
		return String(), nil
	case reflect.Bool:
		return Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Int(), nil
	case reflect.Float32, reflect.Float64:
		return Float(), nil
	case reflect.Interface:
		return Dynamic(), nil
	case reflect.Slice, reflect.Array:
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			// encoding/json renders []byte as base64 text.
			return String(), nil
		}
		elem, err := forType(t.Elem(), visiting)
		if err != nil {
			return Descriptor{}, err
		}
		return SequenceOf(elem), nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return Descriptor{}, fmt.Errorf("typedesc: map key %s is not a string", t.Key())
		}
		val, err := forType(t.Elem(), visiting)
		if err != nil {
			return Descriptor{}, err
		}
		return MappingOf(String(), val), nil
	case reflect.Struct:
		if visiting[t] {
			return Descriptor{}, fmt.Errorf("typedesc: %s: %w", t, errCycle)
		}
		visiting[t] = true
		defer delete(visiting, t)
		fields, err := structFields(t, visiting)
		if err != nil {
			return Descriptor{}, err
		}
		name := t.Name()
		if name == "" {
			name = "object"
		}
		return RecordOf(name, fields...), nil
	default:
		return Descriptor{}, fmt.Errorf("typedesc: unsupported type %s", t)
	}
}

// structFields lists the JSON-visible fields of t; untagged embedded structs are flattened.
func structFields(t reflect.Type, visiting map[reflect.Type]bool) ([]FieldSpec, error) {
	var out []FieldSpec
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		ft := f.Type
		if f.Anonymous && name == "" {
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if visiting[ft] {
					return nil, fmt.Errorf("typedesc: %s: %w", ft, errCycle)
				}
				visiting[ft] = true
				embedded, err := structFields(ft, visiting)
				delete(visiting, ft)
				if err != nil {
					return nil, err
				}
				out = append(out, embedded...)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		d, err := forType(f.Type, visiting)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		optional := f.Type.Kind() == reflect.Pointer
		for opt := range strings.SplitSeq(opts, ",") {
			if opt == "omitempty" || opt == "omitzero" {
				optional = true
			}
		}
		out = append(out, FieldSpec{Name: name, Type: d, Required: !optional})
	}
	return out, nil
}
