// Package providers builds a taskfn.Client for the provider selected in a config.Config.
// Every client is wrapped with recovery, logging, optional tracing and the configured timeout.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/skosovsky/taskfn"
	"github.com/skosovsky/taskfn/config"
	"github.com/skosovsky/taskfn/providers/anthropic"
	"github.com/skosovsky/taskfn/providers/gemini"
	"github.com/skosovsky/taskfn/providers/ollama"
	"github.com/skosovsky/taskfn/providers/openai"
)

// HTTPClient is the transport used by the HTTP based providers (openai, anthropic, ollama).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures New.
type Option func(*options)

type options struct {
	logger      zerolog.Logger
	tracer      trace.Tracer
	tracing     bool
	httpClient  HTTPClient
	middlewares []taskfn.Middleware
}

// WithLogger sets the logger used by the logging middleware. Default: zerolog.Nop().
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracing enables the tracing middleware. A nil tracer uses the global tracer provider.
func WithTracing(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracing = true
		o.tracer = tracer
	}
}

// WithHTTPClient overrides the HTTP transport. Ignored by gemini, which dials over gRPC.
func WithHTTPClient(c HTTPClient) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithMiddleware appends middlewares inside the built-in ones (closest to the provider).
func WithMiddleware(mws ...taskfn.Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, mws...)
	}
}

// Provider is a configured model client. It implements taskfn.Client; Close releases
// connections held by the underlying SDK.
type Provider struct {
	name   string
	client taskfn.Client
	closer func() error
}

// Name returns the provider name, e.g. "openai".
func (p *Provider) Name() string { return p.name }

// Generate implements taskfn.Client.
func (p *Provider) Generate(ctx context.Context, req *taskfn.Request) (string, error) {
	return p.client.Generate(ctx, req)
}

// Close releases provider resources. It is safe to call on providers that hold none.
func (p *Provider) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

var _ taskfn.Client = (*Provider)(nil)

// New validates cfg and builds the client of the selected provider.
// SDK level retries are disabled: one task call makes at most one model request.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Provider, error) {
	if cfg == nil {
		return nil, errors.New("providers: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	pc := cfg.Active()
	temp := cfg.Temperature
	p := &Provider{name: cfg.Provider}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		extra := []openaiopt.RequestOption{openaiopt.WithMaxRetries(0)}
		if o.httpClient != nil {
			extra = append(extra, openaiopt.WithHTTPClient(o.httpClient))
		}
		c, err := openai.NewFromAPIKey(pc.APIKey, pc.BaseURL, openai.Options{
			Model:       pc.Model,
			Temperature: &temp,
			Seed:        pc.Seed,
			MaxTokens:   cfg.MaxTokens,
		}, extra...)
		if err != nil {
			return nil, err
		}
		p.client = c
	case config.ProviderAnthropic:
		extra := []anthropicopt.RequestOption{anthropicopt.WithMaxRetries(0)}
		if o.httpClient != nil {
			extra = append(extra, anthropicopt.WithHTTPClient(o.httpClient))
		}
		c, err := anthropic.NewFromAPIKey(pc.APIKey, pc.BaseURL, anthropic.Options{
			Model:       pc.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: &temp,
		}, extra...)
		if err != nil {
			return nil, err
		}
		p.client = c
	case config.ProviderOllama:
		c, err := ollama.New(ollama.Options{
			BaseURL:     pc.BaseURL,
			Model:       pc.Model,
			Seed:        pc.Seed,
			Temperature: &temp,
			HTTPClient:  o.httpClient,
		})
		if err != nil {
			return nil, err
		}
		p.client = c
	case config.ProviderGemini:
		c, err := gemini.NewFromAPIKey(ctx, pc.APIKey, gemini.Options{
			Model:       pc.Model,
			Temperature: &temp,
			MaxTokens:   cfg.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		p.client = c
		p.closer = c.Close
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Provider)
	}

	mws := []taskfn.Middleware{
		taskfn.WithRecovery(),
		taskfn.WithLogging(o.logger.With().Str("provider", p.name).Logger()),
	}
	if o.tracing {
		mws = append(mws, taskfn.WithTracing(o.tracer))
	}
	mws = append(mws, taskfn.WithTimeout(cfg.Timeout))
	mws = append(mws, o.middlewares...)
	p.client = taskfn.Chain(p.client, mws...)
	return p, nil
}
