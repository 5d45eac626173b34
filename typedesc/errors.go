package typedesc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// CoercionError reports that a value could not be converted to a declared type.
// Path locates the failing value inside a container (e.g. "[2].price"); it is empty
// for a top-level failure.
type CoercionError struct {
	Type   string
	Value  any
	Path   string
	Reason string
	Err    error
}

func (e *CoercionError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(strings.TrimPrefix(e.Path, "."))
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "cannot coerce %s to %s", preview(e.Value), e.Type)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *CoercionError) Unwrap() error { return e.Err }

// IsCoercionError returns true if err is or wraps a CoercionError.
func IsCoercionError(err error) bool {
	var ce *CoercionError
	return errors.As(err, &ce)
}

func newError(d Descriptor, v any, reason string) *CoercionError {
	return &CoercionError{Type: d.String(), Value: v, Reason: reason}
}

// withPath prefixes the location of a nested failure with seg.
func withPath(err error, seg string) error {
	var ce *CoercionError
	if !errors.As(err, &ce) {
		return err
	}
	cp := *ce
	cp.Path = seg + ce.Path
	return &cp
}

const maxPreview = 64

// preview renders v compactly for error messages.
func preview(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		s = fmt.Sprintf("%q", t)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			s = fmt.Sprintf("%v", v)
		} else {
			s = string(b)
		}
	}
	if len(s) > maxPreview {
		s = s[:maxPreview] + "..."
	}
	return s
}
