// Package openai provides a taskfn.Client backed by the OpenAI Chat Completions API
// (github.com/openai/openai-go).
package openai

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/skosovsky/taskfn"
)

// ProviderName identifies this provider in errors and configuration.
const ProviderName = "openai"

type (
	// ChatClient is the subset of the OpenAI client used by the adapter.
	// It is satisfied by *sdk.ChatCompletionService.
	ChatClient interface {
		New(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
	}

	// Options configures the adapter.
	Options struct {
		// Model is the chat model, e.g. "gpt-4o-mini". Required.
		Model string
		// Temperature is sent when set; zero is forwarded as zero.
		Temperature *float64
		// Seed is sent when non-zero.
		Seed int64
		// MaxTokens caps the completion when positive.
		MaxTokens int
	}

	// Client implements taskfn.Client on top of Chat Completions.
	Client struct {
		chat ChatClient
		opts Options
	}
)

// New builds a client from a chat completions client and options.
func New(chat ChatClient, opts Options) (*Client, error) {
	if chat == nil {
		return nil, errors.New("openai chat client is required")
	}
	if opts.Model == "" {
		return nil, errors.New("model identifier is required")
	}
	if opts.Temperature != nil {
		temp := *opts.Temperature
		opts.Temperature = &temp
	}
	return &Client{chat: chat, opts: opts}, nil
}

// NewFromAPIKey constructs a client using the default OpenAI HTTP client.
// A non-empty baseURL points it at an OpenAI-compatible endpoint; extra options are applied last.
func NewFromAPIKey(apiKey, baseURL string, opts Options, extra ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, extra...)
	oc := sdk.NewClient(reqOpts...)
	return New(&oc.Chat.Completions, opts)
}

// Generate sends the rendered prompt as one user message and returns the first choice's content.
func (c *Client) Generate(ctx context.Context, req *taskfn.Request) (string, error) {
	params := sdk.ChatCompletionNewParams{
		Model:    c.opts.Model,
		Messages: []sdk.ChatCompletionMessageParamUnion{sdk.UserMessage(taskfn.BuildPrompt(req))},
	}
	if c.opts.Temperature != nil {
		params.Temperature = sdk.Float(*c.opts.Temperature)
	}
	if c.opts.Seed != 0 {
		params.Seed = sdk.Int(c.opts.Seed)
	}
	if c.opts.MaxTokens > 0 {
		params.MaxCompletionTokens = sdk.Int(int64(c.opts.MaxTokens))
	}
	resp, err := c.chat.New(ctx, params)
	if err != nil {
		return "", &taskfn.ProviderError{Provider: ProviderName, Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &taskfn.ProviderError{Provider: ProviderName, Err: taskfn.ErrEmptyResponse}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var _ taskfn.Client = (*Client)(nil)
