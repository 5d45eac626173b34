package taskfn

import (
	"errors"
	"fmt"
)

// Sentinel errors for taskfn. Use errors.Is to check.
var (
	ErrNilClient        = errors.New("client is nil")
	ErrNilRegistry      = errors.New("registry is nil")
	ErrNilPipeline      = errors.New("pipeline is nil")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrEmptyResponse    = errors.New("model returned an empty response")
)

// BindingError reports that call arguments do not fit the declared parameters
// (too many positional arguments, unknown or duplicate names, missing required ones).
// It is raised before the model is contacted.
type BindingError struct {
	Task   string
	Reason string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("cannot bind arguments of %s: %s", e.Task, e.Reason)
}

// InputTypeError reports that an argument could not be coerced to its declared type.
// Err is usually a *typedesc.CoercionError.
type InputTypeError struct {
	Task  string
	Param string
	Err   error
}

func (e *InputTypeError) Error() string {
	return fmt.Sprintf("invalid argument %q of %s: %v", e.Param, e.Task, e.Err)
}

func (e *InputTypeError) Unwrap() error { return e.Err }

// OutputTypeError reports that the model's normalized answer could not be coerced to the
// declared return type, or decoded into the Go type requested by Invoke.
type OutputTypeError struct {
	Task string
	Err  error
}

func (e *OutputTypeError) Error() string {
	return fmt.Sprintf("invalid result of %s: %v", e.Task, e.Err)
}

func (e *OutputTypeError) Unwrap() error { return e.Err }

// ProviderError wraps a transport, auth or malformed-response failure of a model provider.
// Provider is empty when the failing Client did not identify itself.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("model provider error: %v", e.Err)
	}
	return fmt.Sprintf("model provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsBindingError returns true if err is or wraps a BindingError.
func IsBindingError(err error) bool {
	var be *BindingError
	return errors.As(err, &be)
}

// IsInputTypeError returns true if err is or wraps an InputTypeError.
func IsInputTypeError(err error) bool {
	var ie *InputTypeError
	return errors.As(err, &ie)
}

// IsOutputTypeError returns true if err is or wraps an OutputTypeError.
func IsOutputTypeError(err error) bool {
	var oe *OutputTypeError
	return errors.As(err, &oe)
}

// IsProviderError returns true if err is or wraps a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// asProviderError leaves provider errors untouched and wraps anything else.
func asProviderError(err error) error {
	if IsProviderError(err) {
		return err
	}
	return &ProviderError{Err: err}
}

// panicError wraps a recovered panic value; used by the WithRecovery middleware.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}

func wrapSignature(name, reason string) error {
	if name == "" {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, reason)
	}
	return fmt.Errorf("%w: %s: %s", ErrInvalidSignature, name, reason)
}
