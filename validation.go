package taskfn

import "reflect"

// Validatable is implemented by result types that need business validation beyond their shape.
// Invoke calls it after decoding; a failure is reported as an OutputTypeError.
type Validatable interface {
	Validate() error
}

// validateCustom runs Validatable.Validate() on v; if v does not implement Validatable,
// it tries &v for value types (pointer receiver). Never calls Validate twice for the same receiver.
func validateCustom[T any](v T) error {
	if val, ok := any(v).(Validatable); ok {
		return val.Validate()
	}
	typ := reflect.TypeOf(v)
	if typ == nil || typ.Kind() == reflect.Pointer {
		return nil
	}
	if val, ok := any(&v).(Validatable); ok {
		return val.Validate()
	}
	return nil
}
