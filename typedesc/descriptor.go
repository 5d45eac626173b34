package typedesc

import (
	"slices"
	"strings"
)

// Kind identifies the variant of a Descriptor.
type Kind int

// Descriptor variants.
const (
	KindDynamic Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindSequence
	KindMapping
	KindUnion
	KindRecord
	KindCustom
)

var kindNames = [...]string{
	KindDynamic:  "dynamic",
	KindString:   "string",
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindSequence: "sequence",
	KindMapping:  "mapping",
	KindUnion:    "union",
	KindRecord:   "record",
	KindCustom:   "custom",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsPrimitive reports whether k is one of string, int, float or bool.
func (k Kind) IsPrimitive() bool {
	return k == KindString || k == KindInt || k == KindFloat || k == KindBool
}

// Constructor builds a value of a Custom type from a single argument.
type Constructor func(v any) (any, error)

// Descriptor is an immutable description of a declared type. The zero value is Dynamic.
// Build descriptors with the package constructors; they are safe to share between goroutines.
type Descriptor struct {
	kind      Kind
	name      string
	elem      *Descriptor // sequence element, mapping value
	key       *Descriptor // mapping key
	alts      []Descriptor
	fields    []FieldSpec
	construct Constructor
}

// FieldSpec is one named field of a record.
type FieldSpec struct {
	Name     string
	Type     Descriptor
	Required bool
}

// Field declares a required record field.
func Field(name string, d Descriptor) FieldSpec {
	return FieldSpec{Name: name, Type: d, Required: true}
}

// OptionalField declares a record field that may be absent.
func OptionalField(name string, d Descriptor) FieldSpec {
	return FieldSpec{Name: name, Type: d}
}

func String() Descriptor  { return Descriptor{kind: KindString} }
func Int() Descriptor     { return Descriptor{kind: KindInt} }
func Float() Descriptor   { return Descriptor{kind: KindFloat} }
func Bool() Descriptor    { return Descriptor{kind: KindBool} }
func Dynamic() Descriptor { return Descriptor{kind: KindDynamic} }

// Sequence describes a sequence whose elements pass through unchanged.
func Sequence() Descriptor { return Descriptor{kind: KindSequence} }

// SequenceOf describes a sequence whose elements are each coerced to elem.
func SequenceOf(elem Descriptor) Descriptor {
	return Descriptor{kind: KindSequence, elem: &elem}
}

// Mapping describes a mapping with unspecified key and value types.
func Mapping() Descriptor { return Descriptor{kind: KindMapping} }

// MappingOf describes a mapping from key to value. Only the mapping shape is
// checked during coercion; key and value types are descriptive.
func MappingOf(key, value Descriptor) Descriptor {
	return Descriptor{kind: KindMapping, key: &key, elem: &value}
}

// UnionOf describes a value that matches one of alts, tried left to right.
func UnionOf(alts ...Descriptor) Descriptor {
	return Descriptor{kind: KindUnion, alts: slices.Clone(alts)}
}

// RecordOf describes a named product type with the given fields in declaration order.
func RecordOf(name string, fields ...FieldSpec) Descriptor {
	return Descriptor{kind: KindRecord, name: name, fields: slices.Clone(fields)}
}

// Custom describes a named type built from a single value by construct.
func Custom(name string, construct Constructor) Descriptor {
	return Descriptor{kind: KindCustom, name: name, construct: construct}
}

func (d Descriptor) Kind() Kind { return d.kind }

// Name returns the declared name of a record or custom type, or "" for other kinds.
func (d Descriptor) Name() string { return d.name }

// Elem returns the element type of a sequence or the value type of a mapping.
func (d Descriptor) Elem() (Descriptor, bool) {
	if d.elem == nil {
		return Descriptor{}, false
	}
	return *d.elem, true
}

// Key returns the key type of a mapping.
func (d Descriptor) Key() (Descriptor, bool) {
	if d.key == nil {
		return Descriptor{}, false
	}
	return *d.key, true
}

// Alternatives returns a copy of a union's alternatives.
func (d Descriptor) Alternatives() []Descriptor { return slices.Clone(d.alts) }

// Fields returns a copy of a record's fields.
func (d Descriptor) Fields() []FieldSpec { return slices.Clone(d.fields) }

// String renders a stable, human-readable description, e.g. "[]Item{name string; price float}".
func (d Descriptor) String() string {
	var b strings.Builder
	d.write(&b)
	return b.String()
}

func (d Descriptor) write(b *strings.Builder) {
	switch d.kind {
	case KindDynamic:
		b.WriteString("any")
	case KindString, KindInt, KindFloat, KindBool:
		b.WriteString(d.kind.String())
	case KindSequence:
		b.WriteString("[]")
		if d.elem == nil {
			b.WriteString("any")
			return
		}
		d.elem.write(b)
	case KindMapping:
		b.WriteString("map[")
		if d.key == nil {
			b.WriteString("string")
		} else {
			d.key.write(b)
		}
		b.WriteString("]")
		if d.elem == nil {
			b.WriteString("any")
			return
		}
		d.elem.write(b)
	case KindUnion:
		for i, alt := range d.alts {
			if i > 0 {
				b.WriteString(" | ")
			}
			alt.write(b)
		}
	case KindRecord:
		b.WriteString(d.name)
		b.WriteString("{")
		for i, f := range d.fields {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(f.Name)
			if !f.Required {
				b.WriteString("?")
			}
			b.WriteString(" ")
			f.Type.write(b)
		}
		b.WriteString("}")
	case KindCustom:
		b.WriteString(d.name)
	}
}
