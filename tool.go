package taskfn

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

var contextType = reflect.TypeFor[context.Context]()

// DeclareTool registers fn under sig and returns fn unchanged, so declaration never alters
// how the function behaves when called. The registered entry only makes fn visible to later
// task calls as descriptive context.
//
// fn must be a non-variadic function whose parameter count (not counting a leading
// context.Context) matches len(sig.Params). When sig.Name is empty the identity is the
// fully qualified Go symbol name, e.g. "example.com/app/tools.PublicHoliday".
func DeclareTool[F any](reg *Registry, fn F, sig Signature) (F, error) {
	if reg == nil {
		return fn, ErrNilRegistry
	}
	entry, err := toolEntry(fn, sig)
	if err != nil {
		return fn, err
	}
	reg.Register(entry)
	return fn, nil
}

// MustDeclareTool is like DeclareTool but panics on error. Intended for package-level declarations.
func MustDeclareTool[F any](reg *Registry, fn F, sig Signature) F {
	out, err := DeclareTool(reg, fn, sig)
	if err != nil {
		panic(err)
	}
	return out
}

func toolEntry(fn any, sig Signature) (ToolEntry, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return ToolEntry{}, wrapSignature(sig.Name, "tool must be a non-nil function")
	}
	t := v.Type()
	if t.IsVariadic() {
		return ToolEntry{}, wrapSignature(sig.Name, "variadic tools are not supported")
	}
	arity := t.NumIn()
	if arity > 0 && t.In(0) == contextType {
		arity--
	}
	if arity != len(sig.Params) {
		return ToolEntry{}, wrapSignature(sig.Name, fmt.Sprintf(
			"function takes %d arguments but %d parameters are declared", arity, len(sig.Params)))
	}
	if err := sig.validate(); err != nil {
		return ToolEntry{}, err
	}
	identity := sig.Name
	if identity == "" {
		identity = symbolName(v)
	}
	return ToolEntry{
		Identity:   identity,
		Name:       shortName(identity),
		Params:     sig.Params,
		ReturnType: sig.Returns,
		Doc:        sig.Doc,
	}, nil
}

func symbolName(v reflect.Value) string {
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	return f.Name()
}

// shortName strips the package path: "a/b.pkg.Fn" -> "Fn".
func shortName(identity string) string {
	name := identity
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
