// Package gemini provides a taskfn.Client backed by Google Gemini
// (github.com/google/generative-ai-go).
package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/skosovsky/taskfn"
)

// ProviderName identifies this provider in errors and configuration.
const ProviderName = "gemini"

type (
	// ContentGenerator is the subset of *genai.GenerativeModel used by the adapter.
	ContentGenerator interface {
		GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	}

	// Options configures the adapter.
	Options struct {
		// Model is the Gemini model name, e.g. "gemini-1.5-flash". Required by NewFromAPIKey.
		Model string
		// Temperature is applied when set; zero is forwarded as zero.
		Temperature *float64
		// MaxTokens caps the output when positive.
		MaxTokens int
	}

	// Client implements taskfn.Client on top of a Gemini generative model.
	Client struct {
		gen    ContentGenerator
		closer func() error
	}
)

// New builds a client around an already configured generator.
func New(gen ContentGenerator) (*Client, error) {
	if gen == nil {
		return nil, errors.New("gemini generator is required")
	}
	return &Client{gen: gen}, nil
}

// NewFromAPIKey dials Gemini and configures the model from opts. Close releases the connection.
func NewFromAPIKey(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	if opts.Model == "" {
		return nil, errors.New("model identifier is required")
	}
	gc, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &taskfn.ProviderError{Provider: ProviderName, Err: err}
	}
	model := gc.GenerativeModel(opts.Model)
	if opts.Temperature != nil {
		model.SetTemperature(float32(*opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	model.ResponseMIMEType = "application/json"
	return &Client{gen: model, closer: gc.Close}, nil
}

// Generate sends the rendered prompt and concatenates the text parts of the first candidate.
func (c *Client) Generate(ctx context.Context, req *taskfn.Request) (string, error) {
	resp, err := c.gen.GenerateContent(ctx, genai.Text(taskfn.BuildPrompt(req)))
	if err != nil {
		return "", &taskfn.ProviderError{Provider: ProviderName, Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &taskfn.ProviderError{Provider: ProviderName, Err: taskfn.ErrEmptyResponse}
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// Close releases the underlying Gemini connection, if the client owns one.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

var _ taskfn.Client = (*Client)(nil)
