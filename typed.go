package taskfn

import (
	"context"

	"github.com/go-viper/mapstructure/v2"
)

// Invoke calls t and decodes the coerced result into R. Records and mappings decode into
// structs through their json tags; sequences into slices. If R implements Validatable
// (on the value or pointer receiver), it is validated after decoding.
// Decode and validation failures are OutputTypeErrors.
func Invoke[R any](ctx context.Context, t *Task, args ...any) (R, error) {
	var zero R
	v, err := t.Call(ctx, args...)
	if err != nil {
		return zero, err
	}
	out, err := Decode[R](v)
	if err != nil {
		return zero, &OutputTypeError{Task: t.Name(), Err: err}
	}
	if err := validateCustom(out); err != nil {
		return zero, &OutputTypeError{Task: t.Name(), Err: err}
	}
	return out, nil
}

// Decode converts a coerced value (as returned by Task.Call) into R.
func Decode[R any](v any) (R, error) {
	if r, ok := v.(R); ok {
		return r, nil
	}
	var out R
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      &out,
		ErrorUnused: true,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(v); err != nil {
		var zero R
		return zero, err
	}
	return out, nil
}
