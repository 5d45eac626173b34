package taskfn

import (
	"context"
	"reflect"
	"slices"

	"github.com/tiendc/go-deepcopy"

	"github.com/skosovsky/taskfn/typedesc"
)

// DefaultPrompt is the task intent used when a signature has no doc text.
const DefaultPrompt = "Process the given inputs"

// Client is the contract for a model provider: given a task request, return the model's raw text.
// It is provider-agnostic; implementations live under providers/.
type Client interface {
	Generate(ctx context.Context, req *Request) (string, error)
}

// ClientFunc adapts a plain function to Client.
type ClientFunc func(ctx context.Context, req *Request) (string, error)

func (f ClientFunc) Generate(ctx context.Context, req *Request) (string, error) {
	return f(ctx, req)
}

// Request is everything a model needs to perform one task call. It is built fresh for
// every call and must not be mutated by clients.
type Request struct {
	// FunctionName is the task identity.
	FunctionName string
	// Arguments maps parameter names to stringified, already coerced values.
	Arguments map[string]string
	// ReturnType is the declared result type; ReturnType.String() is its description.
	ReturnType typedesc.Descriptor
	// Prompt is the task intent (the signature's doc text).
	Prompt string
	// AvailableTools is a snapshot of the registry taken when the request was built.
	// Tools are descriptive context only; they are never invoked on the model's behalf.
	AvailableTools map[string]ToolEntry
}

// Param declares one parameter of a task or tool.
type Param struct {
	Name     string
	Type     typedesc.Descriptor
	Required bool
	// Default fills the parameter when a call omits it. Only used for optional parameters.
	Default any
}

// Required declares a parameter that every call must supply.
func Required(name string, d typedesc.Descriptor) Param {
	return Param{Name: name, Type: d, Required: true}
}

// Optional declares a parameter that falls back to def when omitted.
func Optional(name string, d typedesc.Descriptor, def any) Param {
	return Param{Name: name, Type: d, Default: def}
}

// Signature is the statically declared shape of a task or tool.
type Signature struct {
	// Name is the identity. Tools may leave it empty to use the Go symbol name.
	Name    string
	Doc     string
	Params  []Param
	Returns typedesc.Descriptor
}

func (s Signature) validate() error {
	seen := make(map[string]struct{}, len(s.Params))
	optionalSeen := false
	for _, p := range s.Params {
		if p.Name == "" {
			return wrapSignature(s.Name, "parameter with empty name")
		}
		if _, dup := seen[p.Name]; dup {
			return wrapSignature(s.Name, "duplicate parameter "+p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.Required && optionalSeen {
			return wrapSignature(s.Name, "required parameter "+p.Name+" follows an optional one")
		}
		optionalSeen = optionalSeen || !p.Required
	}
	return nil
}

// ToolEntry is the registry's record of one declared tool.
type ToolEntry struct {
	// Identity is the module-qualified name, unique within a registry.
	Identity   string
	Name       string
	Params     []Param
	ReturnType typedesc.Descriptor
	Doc        string
}

// Parameters returns the tool's arguments as a JSON Schema object (compatible with LLM tool definitions).
func (e ToolEntry) Parameters() map[string]any {
	fields := make([]typedesc.FieldSpec, 0, len(e.Params))
	for _, p := range e.Params {
		fields = append(fields, typedesc.FieldSpec{Name: p.Name, Type: p.Type, Required: p.Required})
	}
	return typedesc.ObjectSchema(fields)
}

func (e ToolEntry) clone() ToolEntry {
	e.Params = cloneParams(e.Params)
	return e
}

// cloneParams copies params including their defaults, so maps and slices held as defaults
// are never shared between copies.
func cloneParams(params []Param) []Param {
	out := slices.Clone(params)
	for i := range out {
		out[i].Default = cloneValue(out[i].Default)
	}
	return out
}

// cloneValue deep-copies v. Values the copier cannot handle (funcs, channels) are shared as is.
func cloneValue(v any) any {
	if v == nil {
		return nil
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Bool, reflect.String, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Float32, reflect.Float64:
		return v
	}
	src := reflect.New(t)
	src.Elem().Set(reflect.ValueOf(v))
	dst := reflect.New(t)
	if err := deepcopy.Copy(dst.Interface(), src.Interface()); err != nil {
		return v
	}
	return dst.Elem().Interface()
}

// Stage is a step of the task pipeline. Failed is reachable from every other stage.
type Stage int

const (
	StageBinding Stage = iota
	StageInputValidating
	StageContextBuilding
	StageDispatch
	StageNormalizing
	StageOutputCoercing
	StageDone
	StageFailed
)

var stageNames = [...]string{
	StageBinding:         "binding",
	StageInputValidating: "input_validating",
	StageContextBuilding: "context_building",
	StageDispatch:        "dispatch",
	StageNormalizing:     "normalizing",
	StageOutputCoercing:  "output_coercing",
	StageDone:            "done",
	StageFailed:          "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// CallSummary is passed to the after-call hook (WithOnAfterCall) when a task call finishes.
// Stage is StageDone or StageFailed; FailedAt is the stage that failed and is only
// meaningful when Stage is StageFailed.
type CallSummary struct {
	CallID        string
	Task          string
	Stage         Stage
	FailedAt      Stage
	Error         error
	ResponseBytes int
}
