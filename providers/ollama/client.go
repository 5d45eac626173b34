// Package ollama provides a taskfn.Client for a local Ollama server using its /api/generate endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/skosovsky/taskfn"
)

const (
	// ProviderName identifies this provider in errors and configuration.
	ProviderName = "ollama"
	// DefaultBaseURL is where a local Ollama listens by default.
	DefaultBaseURL = "http://localhost:11434"
	// DefaultSeed keeps generations reproducible when no seed is configured.
	DefaultSeed = 123
)

const maxErrorBody = 4 << 10

// HTTPDoer is the subset of *http.Client used by the adapter.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures the adapter.
type Options struct {
	// BaseURL of the Ollama server; DefaultBaseURL when empty.
	BaseURL string
	// Model is the Ollama model tag, e.g. "gemma3:4b". Required.
	Model string
	// Seed is always sent; zero means DefaultSeed.
	Seed int64
	// Temperature is sent when set; zero is forwarded as zero.
	Temperature *float64
	// HTTPClient overrides http.DefaultClient.
	HTTPClient HTTPDoer
}

// Client implements taskfn.Client against Ollama.
type Client struct {
	baseURL string
	model   string
	seed    int64
	temp    *float64
	http    HTTPDoer
}

type generateOptions struct {
	Seed        int64    `json:"seed"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Options generateOptions `json:"options"`
	Stream  bool            `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// New builds an Ollama client.
func New(opts Options) (*Client, error) {
	if opts.Model == "" {
		return nil, errors.New("model identifier is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	seed := opts.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	doer := opts.HTTPClient
	if doer == nil {
		doer = http.DefaultClient
	}
	cl := &Client{baseURL: baseURL, model: opts.Model, seed: seed, http: doer}
	if opts.Temperature != nil {
		temp := *opts.Temperature
		cl.temp = &temp
	}
	return cl, nil
}

// Generate posts a non-streaming generate request and returns the trimmed response text.
func (c *Client) Generate(ctx context.Context, req *taskfn.Request) (string, error) {
	body := generateRequest{
		Model:   c.model,
		Prompt:  taskfn.BuildPrompt(req),
		Options: generateOptions{Seed: c.seed},
	}
	body.Options.Temperature = c.temp
	payload, err := json.Marshal(body)
	if err != nil {
		return "", c.fail(fmt.Errorf("marshal request: %w", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", c.fail(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", c.fail(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", c.fail(fmt.Errorf("generate failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", c.fail(fmt.Errorf("decode response: %w", err))
	}
	if out.Error != "" {
		return "", c.fail(errors.New(out.Error))
	}
	return strings.TrimSpace(out.Response), nil
}

func (c *Client) fail(err error) error {
	return &taskfn.ProviderError{Provider: ProviderName, Err: err}
}

var _ taskfn.Client = (*Client)(nil)
