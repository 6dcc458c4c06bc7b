// Package llm provides the Ollama generate adapter.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/valyala/fastjson"
	"go.uber.org/zap"
)

// Defaults match a stock local Ollama install.
const (
	DefaultEndpoint = "http://localhost:11434/api/generate"
	DefaultModel    = "llama3"
)

var (
	// ErrEndpointStatus is wrapped by StatusError.
	ErrEndpointStatus = errors.New("inference endpoint returned non-success status")

	// ErrMalformedResponse means a success response did not carry a string "response" field.
	ErrMalformedResponse = errors.New("malformed inference response")
)

// StatusError carries the raw body of a non-success endpoint response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inference endpoint returned status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrEndpointStatus }

// Options are the decoding options sent with every request.
type Options struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumCtx      int     `json:"num_ctx"`
}

// DefaultOptions gives deterministic decoding with a 4096 token window.
func DefaultOptions() Options {
	return Options{Temperature: 0, TopP: 0.9, NumCtx: 4096}
}

// OllamaGenerateAdapter implements ports.LLMService against /api/generate.
type OllamaGenerateAdapter struct {
	endpoint string
	model    string
	options  Options
	client   *http.Client
	logger   *zap.Logger
}

// NewOllamaGenerateAdapter creates a new adapter. A zero timeout means the
// request is bounded only by the caller's context.
func NewOllamaGenerateAdapter(endpoint, model string, options Options, timeout time.Duration, logger *zap.Logger) *OllamaGenerateAdapter {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OllamaGenerateAdapter{
		endpoint: endpoint,
		model:    model,
		options:  options,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// generateRequest is the Ollama generate API request.
type generateRequest struct {
	Model   string  `json:"model"`
	System  string  `json:"system"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options Options `json:"options"`
}

// Model returns the model identifier sent with each request.
func (a *OllamaGenerateAdapter) Model() string {
	return a.model
}

// Generate sends one blocking, non-streaming request and returns the
// "response" field of the reply.
func (a *OllamaGenerateAdapter) Generate(ctx context.Context, system, prompt string) (string, error) {
	jsonData, err := json.Marshal(generateRequest{
		Model:   a.model,
		System:  system,
		Prompt:  prompt,
		Stream:  false,
		Options: a.options,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	a.logger.Debug("Calling inference endpoint",
		zap.String("endpoint", a.endpoint),
		zap.String("model", a.model),
		zap.Int("prompt_bytes", len(prompt)),
	)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return extractResponse(body)
}

// extractResponse checks the reply schema before reading the answer.
func extractResponse(body []byte) (string, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	field := v.Get("response")
	if field == nil {
		return "", fmt.Errorf("%w: missing \"response\" field", ErrMalformedResponse)
	}
	if field.Type() != fastjson.TypeString {
		return "", fmt.Errorf("%w: \"response\" is %s, not string", ErrMalformedResponse, field.Type())
	}

	return string(field.GetStringBytes()), nil
}
