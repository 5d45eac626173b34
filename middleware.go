package taskfn

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/skosovsky/taskfn"

// Middleware wraps a Client with cross-cutting behavior (logging, recovery, timeout, tracing).
type Middleware func(Client) Client

// Chain applies mws to c in onion order: the first middleware is outermost.
func Chain(c Client, mws ...Middleware) Client {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

// WithLogging returns a middleware that logs start, end, duration and errors of every Generate call.
func WithLogging(logger zerolog.Logger) Middleware {
	return func(next Client) Client {
		return ClientFunc(func(ctx context.Context, req *Request) (string, error) {
			logger.Debug().Str("function", req.FunctionName).Int("tools", len(req.AvailableTools)).Msg("generate start")
			start := time.Now()
			out, err := next.Generate(ctx, req)
			dur := time.Since(start)
			if err != nil {
				logger.Error().Err(err).Str("function", req.FunctionName).Dur("duration", dur).Msg("generate error")
				return "", err
			}
			logger.Debug().Str("function", req.FunctionName).Dur("duration", dur).Int("bytes", len(out)).Msg("generate end")
			return out, nil
		})
	}
}

// WithRecovery returns a middleware that turns a panicking client into a ProviderError.
func WithRecovery() Middleware {
	return func(next Client) Client {
		return ClientFunc(func(ctx context.Context, req *Request) (out string, err error) {
			defer func() {
				if p := recover(); p != nil {
					out = ""
					err = &ProviderError{Err: &panicError{p: p}}
				}
			}()
			return next.Generate(ctx, req)
		})
	}
}

// WithTimeout returns a middleware that bounds every Generate call by d. Zero or negative d disables it.
func WithTimeout(d time.Duration) Middleware {
	return func(next Client) Client {
		if d <= 0 {
			return next
		}
		return ClientFunc(func(ctx context.Context, req *Request) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Generate(ctx, req)
		})
	}
}

// WithTracing returns a middleware that records an OpenTelemetry client span per Generate call.
// A nil tracer uses the global tracer provider.
func WithTracing(tracer trace.Tracer) Middleware {
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	return func(next Client) Client {
		return ClientFunc(func(ctx context.Context, req *Request) (string, error) {
			ctx, span := tracer.Start(ctx, "taskfn.generate",
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attribute.String("taskfn.function", req.FunctionName),
					attribute.String("taskfn.return_type", req.ReturnType.String()),
					attribute.Int("taskfn.arguments", len(req.Arguments)),
					attribute.Int("taskfn.tools", len(req.AvailableTools)),
				),
			)
			defer span.End()
			out, err := next.Generate(ctx, req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "generate failed")
				return "", err
			}
			span.SetAttributes(attribute.Int("taskfn.response_bytes", len(out)))
			return out, nil
		})
	}
}
