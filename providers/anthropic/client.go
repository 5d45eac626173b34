// Package anthropic provides a taskfn.Client backed by the Anthropic Claude Messages API
// (github.com/anthropics/anthropic-sdk-go).
package anthropic

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/skosovsky/taskfn"
)

// ProviderName identifies this provider in errors and configuration.
const ProviderName = "anthropic"

type (
	// MessagesClient captures the subset of the Anthropic SDK client used by the adapter.
	// It is satisfied by *sdk.MessageService so callers can pass a real client or a stub.
	MessagesClient interface {
		New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
	}

	// Options configures the adapter.
	Options struct {
		// Model is the Claude model identifier, e.g. "claude-3-5-haiku-latest". Required.
		Model string
		// MaxTokens caps the completion. Required by the Messages API; defaults to 1024.
		MaxTokens int
		// Temperature is sent when set; zero is forwarded as zero.
		Temperature *float64
	}

	// Client implements taskfn.Client on top of Anthropic Messages.
	Client struct {
		msg       MessagesClient
		model     string
		maxTokens int64
		temp      *float64
	}
)

const defaultMaxTokens = 1024

// New builds a client from an Anthropic Messages client and options.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic messages client is required")
	}
	if opts.Model == "" {
		return nil, errors.New("model identifier is required")
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	cl := &Client{msg: msg, model: opts.Model, maxTokens: int64(maxTokens)}
	if opts.Temperature != nil {
		temp := *opts.Temperature
		cl.temp = &temp
	}
	return cl, nil
}

// NewFromAPIKey constructs a client using the default Anthropic HTTP client.
// A non-empty baseURL overrides the API endpoint; extra options are applied last.
func NewFromAPIKey(apiKey, baseURL string, opts Options, extra ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, extra...)
	ac := sdk.NewClient(reqOpts...)
	return New(&ac.Messages, opts)
}

// Generate sends the rendered prompt as a single user message and returns the concatenated text blocks.
func (c *Client) Generate(ctx context.Context, req *taskfn.Request) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(taskfn.BuildPrompt(req))),
		},
	}
	if c.temp != nil {
		params.Temperature = sdk.Float(*c.temp)
	}
	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return "", &taskfn.ProviderError{Provider: ProviderName, Err: err}
	}
	if msg == nil {
		return "", &taskfn.ProviderError{Provider: ProviderName, Err: taskfn.ErrEmptyResponse}
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", &taskfn.ProviderError{Provider: ProviderName, Err: taskfn.ErrEmptyResponse}
	}
	return text, nil
}

var _ taskfn.Client = (*Client)(nil)
