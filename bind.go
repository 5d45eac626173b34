package taskfn

import (
	"fmt"
)

// NamedArg is a keyword argument for Task.Call. Build it with Arg.
type NamedArg struct {
	Name  string
	Value any
}

// Arg passes v as the parameter called name.
func Arg(name string, v any) NamedArg {
	return NamedArg{Name: name, Value: v}
}

// bind maps positional and keyword arguments onto params the way ordinary call binding does:
// positionals fill parameters in order, keywords fill by name, keywords may not precede
// positionals, and omitted optional parameters take their defaults.
func bind(task string, params []Param, args []any) (map[string]any, error) {
	bound := make(map[string]any, len(params))
	index := make(map[string]int, len(params))
	for i, p := range params {
		index[p.Name] = i
	}
	positional := 0
	keywordSeen := false
	for _, a := range args {
		na, isNamed := a.(NamedArg)
		if !isNamed {
			if keywordSeen {
				return nil, &BindingError{Task: task, Reason: "positional argument follows keyword argument"}
			}
			if positional >= len(params) {
				return nil, &BindingError{Task: task, Reason: fmt.Sprintf(
					"takes %d positional arguments but %d were given", len(params), countPositional(args))}
			}
			bound[params[positional].Name] = a
			positional++
			continue
		}
		keywordSeen = true
		if _, ok := index[na.Name]; !ok {
			return nil, &BindingError{Task: task, Reason: fmt.Sprintf("unexpected keyword argument %q", na.Name)}
		}
		if _, dup := bound[na.Name]; dup {
			return nil, &BindingError{Task: task, Reason: fmt.Sprintf("multiple values for argument %q", na.Name)}
		}
		bound[na.Name] = na.Value
	}
	var missing []string
	for _, p := range params {
		if _, ok := bound[p.Name]; ok {
			continue
		}
		if p.Required {
			missing = append(missing, p.Name)
			continue
		}
		bound[p.Name] = p.Default
	}
	if len(missing) > 0 {
		return nil, &BindingError{Task: task, Reason: fmt.Sprintf("missing required arguments %q", missing)}
	}
	return bound, nil
}

func countPositional(args []any) int {
	n := 0
	for _, a := range args {
		if _, ok := a.(NamedArg); !ok {
			n++
		}
	}
	return n
}
