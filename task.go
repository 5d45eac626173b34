package taskfn

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skosovsky/taskfn/typedesc"
)

// Pipeline holds what every task call shares: the model client (with middlewares applied),
// the tool registry and default options. It is safe for concurrent use.
type Pipeline struct {
	client   Client
	registry *Registry
	opts     options
}

// NewPipeline creates a Pipeline. Middlewares from WithMiddleware wrap client once, here.
func NewPipeline(client Client, registry *Registry, opts ...Option) (*Pipeline, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if registry == nil {
		return nil, ErrNilRegistry
	}
	o := defaultOptions().with(opts)
	return &Pipeline{
		client:   Chain(client, o.middlewares...),
		registry: registry,
		opts:     o,
	}, nil
}

// Registry returns the registry whose snapshot is attached to every request.
func (p *Pipeline) Registry() *Registry { return p.registry }

// Task is a function whose body is supplied by the model at call time.
type Task struct {
	pipeline *Pipeline
	sig      Signature
	opts     options
}

// NewTask declares a task on p. sig.Name is required; an empty sig.Doc becomes DefaultPrompt
// and a zero sig.Returns is Dynamic.
func NewTask(p *Pipeline, sig Signature, opts ...Option) (*Task, error) {
	if p == nil {
		return nil, ErrNilPipeline
	}
	if sig.Name == "" {
		return nil, wrapSignature("", "task name is required")
	}
	if err := sig.validate(); err != nil {
		return nil, err
	}
	if sig.Doc == "" {
		sig.Doc = DefaultPrompt
	}
	return &Task{pipeline: p, sig: sig, opts: p.opts.with(opts)}, nil
}

// Name returns the task identity.
func (t *Task) Name() string { return t.sig.Name }

// Signature returns a copy of the declared signature.
func (t *Task) Signature() Signature {
	sig := t.sig
	sig.Params = cloneParams(t.sig.Params)
	return sig
}

// Call runs one task invocation: bind args, coerce them, build the request, ask the model,
// normalize the answer and coerce it to the declared return type. args are positional values
// optionally followed by keyword arguments built with Arg. Nothing is retried; the first
// failure ends the call and is returned to the caller.
func (t *Task) Call(ctx context.Context, args ...any) (result any, err error) {
	c := call{
		task:   t,
		id:     uuid.NewString(),
		logger: t.opts.logger.With().Str("task", t.sig.Name).Logger(),
	}
	c.logger = c.logger.With().Str("call_id", c.id).Logger()
	start := time.Now()
	defer func() {
		if t.opts.onAfter != nil {
			t.opts.onAfter(ctx, CallSummary{
				CallID:        c.id,
				Task:          t.sig.Name,
				Stage:         c.stage,
				FailedAt:      c.failedAt,
				Error:         err,
				ResponseBytes: c.responseBytes,
			}, time.Since(start))
		}
	}()
	result, err = c.run(ctx, args)
	if err != nil {
		c.failedAt = c.stage
		c.stage = StageFailed
		c.logger.Debug().Err(err).Stringer("failed_at", c.failedAt).Msg("task failed")
		return nil, err
	}
	return result, nil
}

// call is the state of one Task.Call.
type call struct {
	task          *Task
	id            string
	logger        zerolog.Logger
	stage         Stage
	failedAt      Stage
	responseBytes int
}

func (c *call) enter(s Stage) {
	c.stage = s
	c.logger.Debug().Stringer("stage", s).Msg("task stage")
}

func (c *call) run(ctx context.Context, args []any) (any, error) {
	t := c.task
	c.enter(StageBinding)
	bound, err := bind(t.sig.Name, t.sig.Params, args)
	if err != nil {
		return nil, err
	}

	c.enter(StageInputValidating)
	arguments, err := t.coerceInputs(bound)
	if err != nil {
		return nil, err
	}

	c.enter(StageContextBuilding)
	req := &Request{
		FunctionName:   t.sig.Name,
		Arguments:      arguments,
		ReturnType:     t.sig.Returns,
		Prompt:         t.sig.Doc,
		AvailableTools: t.pipeline.registry.Snapshot(),
	}
	if t.opts.onBefore != nil {
		t.opts.onBefore(ctx, req)
	}

	c.enter(StageDispatch)
	raw, err := t.pipeline.client.Generate(ctx, req)
	if err != nil {
		return nil, asProviderError(err)
	}
	c.responseBytes = len(raw)

	c.enter(StageNormalizing)
	normalized := NormalizeResponse(raw)

	c.enter(StageOutputCoercing)
	out, err := t.opts.mode.Coerce(normalized, t.sig.Returns)
	if err != nil {
		return nil, &OutputTypeError{Task: t.sig.Name, Err: err}
	}
	c.enter(StageDone)
	return out, nil
}

// coerceInputs validates bound values against their parameter types and stringifies them for
// the request: strings verbatim, everything else as compact JSON. A nil optional value is kept as null.
func (t *Task) coerceInputs(bound map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(bound))
	for _, p := range t.sig.Params {
		v, ok := bound[p.Name]
		if !ok {
			continue
		}
		if v == nil && !p.Required {
			out[p.Name] = "null"
			continue
		}
		canonical, err := typedesc.Canonicalize(v)
		if err != nil {
			return nil, &InputTypeError{Task: t.sig.Name, Param: p.Name, Err: err}
		}
		coerced, err := t.opts.mode.Coerce(canonical, p.Type)
		if err != nil {
			return nil, &InputTypeError{Task: t.sig.Name, Param: p.Name, Err: err}
		}
		s, err := stringify(coerced)
		if err != nil {
			return nil, &InputTypeError{Task: t.sig.Name, Param: p.Name, Err: err}
		}
		out[p.Name] = s
	}
	return out, nil
}

func stringify(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
