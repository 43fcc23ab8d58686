// Package openai is a client for OpenAI-compatible chat completion endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/ports"
)

// DefaultBaseURL is the public OpenAI API.
const DefaultBaseURL = "https://api.openai.com/v1"

const completionsPath = "/chat/completions"

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 8 << 20

var _ ports.Completer = (*Client)(nil)

// ChatRequest is the request body for chat completions.
type ChatRequest struct {
	Model    string           `json:"model"`
	Messages []domain.Message `json:"messages"`
}

// ChatResponse is the response from chat completions.
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
			Role    string          `json:"role"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// Client calls a chat completion endpoint. It performs no retries.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL points the client at another OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithModel sets the model used when a request does not name one.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = &http.Client{Timeout: d}
	}
}

// New creates a client with the given API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends messages and returns the content of the first choice.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	const op = "POST " + completionsPath

	model := req.Model
	if model == "" {
		model = c.model
	}
	if model == "" {
		return "", errors.New("openai: model not set")
	}

	raw, err := json.Marshal(ChatRequest{Model: model, Messages: req.Messages})
	if err != nil {
		return "", fmt.Errorf("openai: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(raw))
	if err != nil {
		return "", domain.NewError(domain.KindTransport, op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", domain.NewError(domain.KindTransport, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", domain.NewError(domain.KindTransport, op, err)
	}

	var out ChatResponse
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", &domain.Error{
			Kind:    domain.KindUpstream,
			Op:      op,
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, msg),
		}
	}
	if decodeErr != nil {
		return "", &domain.Error{Kind: domain.KindParse, Op: op, Message: "decode response", Err: decodeErr}
	}
	if out.Error != nil {
		return "", &domain.Error{Kind: domain.KindUpstream, Op: op, Message: out.Error.Message}
	}
	if len(out.Choices) == 0 {
		return "", &domain.Error{Kind: domain.KindUpstream, Op: op, Message: "no choices in response"}
	}
	return parseContent(out.Choices[0].Message.Content), nil
}

// parseContent parses content that may be a string, null, or an array of
// parts (e.g. [{"type":"text","text":"..."}]).
func parseContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		var b strings.Builder
		for _, p := range parts {
			if p.Type == "" || p.Type == "text" {
				b.WriteString(p.Text)
			}
		}
		return b.String()
	}
	return ""
}
