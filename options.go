package taskfn

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/skosovsky/taskfn/typedesc"
)

// Option configures a Pipeline or a single Task (e.g. WithLogger, WithBestEffort).
// Options given to NewTask apply on top of the pipeline's options.
type Option func(*options)

type options struct {
	logger      zerolog.Logger
	mode        typedesc.Mode
	onBefore    func(context.Context, *Request)
	onAfter     func(context.Context, CallSummary, time.Duration)
	middlewares []Middleware
}

func defaultOptions() options {
	return options{logger: zerolog.Nop(), mode: typedesc.Strict}
}

func (o options) with(opts []Option) options {
	o.middlewares = slices.Clone(o.middlewares)
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for stage transitions. Default: zerolog.Nop().
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithBestEffort switches coercion to typedesc.BestEffort: records and custom types that cannot
// be constructed are returned unchanged instead of failing the call.
func WithBestEffort() Option {
	return func(o *options) {
		o.mode = typedesc.BestEffort
	}
}

// WithOnBeforeDispatch sets a hook called with the finished request right before the model is called.
// The hook must not modify the request.
func WithOnBeforeDispatch(fn func(context.Context, *Request)) Option {
	return func(o *options) {
		o.onBefore = fn
	}
}

// WithOnAfterCall sets a hook called after every task call (success or error).
func WithOnAfterCall(fn func(context.Context, CallSummary, time.Duration)) Option {
	return func(o *options) {
		o.onAfter = fn
	}
}

// WithMiddleware appends client middlewares (first is outermost). Only meaningful for NewPipeline.
func WithMiddleware(mws ...Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, mws...)
	}
}
