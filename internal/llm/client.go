// Package llm talks to an OpenAI-compatible chat endpoint, falling back to
// the Ollama native API when the compatible path is missing.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mj1618/wingman/internal/config"
	werrors "github.com/mj1618/wingman/internal/errors"
)

const (
	openAIPath = "/v1/chat/completions"
	nativePath = "/api/chat"
)

// ---------- Client ----------

// Options configures a Client.
type Options struct {
	BaseURL           string // server root, e.g. http://localhost:11434
	Model             string
	Token             string
	Temperature       float64
	MaxTokens         int
	Timeout           time.Duration
	Backoff           []time.Duration
	MaxToolIterations int
}

// OptionsFrom builds client options from the model config.
func OptionsFrom(m config.ModelConfig) Options {
	backoff := make([]time.Duration, 0, len(m.RetryBackoffSec))
	for _, s := range m.RetryBackoffSec {
		backoff = append(backoff, time.Duration(s)*time.Second)
	}
	return Options{
		BaseURL:           m.BaseURL,
		Model:             m.ModelName,
		Token:             m.BearerToken,
		Temperature:       m.Temperature,
		MaxTokens:         m.MaxTokens,
		Timeout:           time.Duration(m.RequestTimeoutSec) * time.Second,
		Backoff:           backoff,
		MaxToolIterations: m.MaxToolIterations,
	}
}

// Client handles communication with the model server.
type Client struct {
	opts       Options
	httpClient *http.Client
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
}

// New creates a client.
func New(opts Options, logger *slog.Logger) *Client {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/v1")
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.MaxToolIterations <= 0 {
		opts.MaxToolIterations = 6
	}
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		sleep:      sleepCtx,
		logger:     logger.With("component", "llm"),
	}
}

// WithHTTPClient replaces the HTTP client. Used by tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpClient = h
	return c
}

// WithSleep replaces the backoff sleep. Used by tests.
func (c *Client) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Client {
	c.sleep = fn
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.opts.Model }

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// ---------- Wire Types (OpenAI-compatible) ----------

// Message is one chat message. Assistant messages may carry tool calls;
// tool messages carry the id and name of the call they answer.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolDefinition is an OpenAI-compatible tool definition for function calling.
type ToolDefinition struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef describes a callable function exposed to the model.
type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall holds the function name and serialized arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    any              `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	ToolChoice  string           `json:"tool_choice,omitempty"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string     `json:"content"`
			ToolCalls []ToolCall `json:"tool_calls,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type nativeRequest struct {
	Model    string         `json:"model"`
	Messages any            `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

// nativeMessage is a native-API message; images ride on the message.
type nativeMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type nativeResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Response is the parsed result of one completion.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	// Native is set when the answer came from the native endpoint, which
	// never returns tool calls.
	Native bool
}

// ---------- Errors ----------

// apiError captures a non-2xx HTTP status and body.
type apiError struct {
	statusCode int
	body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API returned %d: %s", e.statusCode, truncate(e.body, 200))
}

// transportError marks a failure to reach the server at all.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "API request failed: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func isNotFound(err error) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.statusCode == http.StatusNotFound
}

func isRetryable(err error) bool {
	var ae *apiError
	if errors.As(err, &ae) {
		switch ae.statusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var te *transportError
	return errors.As(err, &te)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// ---------- Public Methods ----------

// Chat sends one completion. A 404 from the compatible path falls back to the
// native endpoint. Transport failures and 502/503/504 are retried with the
// configured backoff. Failures are GENERATION_FAILED.
func (c *Client) Chat(ctx context.Context, messages []Message, tools []ToolDefinition) (*Response, error) {
	return c.chat(ctx, messages, tools, c.opts.MaxTokens)
}

func (c *Client) chat(ctx context.Context, messages []Message, tools []ToolDefinition, maxTokens int) (*Response, error) {
	resp, err := c.withRetry(ctx, "openai", func() (*Response, error) {
		return c.openAI(ctx, messages, tools, maxTokens)
	})
	if err == nil {
		return resp, nil
	}
	if !isNotFound(err) {
		return nil, werrors.NewGenerationFailed(err)
	}

	c.logger.Info("compatible endpoint missing, using native API", "base_url", c.opts.BaseURL)
	resp, err = c.withRetry(ctx, "native", func() (*Response, error) {
		return c.native(ctx, messages, c.opts.Temperature)
	})
	if err != nil {
		return nil, werrors.NewGenerationFailed(err)
	}
	return resp, nil
}

// Warm sends a one-token completion so a cold local model gets loaded.
func (c *Client) Warm(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	_, err := c.chat(ctx, []Message{{Role: "user", Content: "ping"}}, nil, 1)
	return time.Since(start), err
}

func (c *Client) withRetry(ctx context.Context, path string, fn func() (*Response, error)) (*Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil || !isRetryable(err) || attempt >= len(c.opts.Backoff) {
			return nil, err
		}
		wait := c.opts.Backoff[attempt]
		c.logger.Warn("model request failed, retrying",
			"path", path,
			"attempt", attempt+1,
			"backoff", wait,
			"error", err,
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("context cancelled during retry: %w", err)
		}
	}
}

func (c *Client) openAI(ctx context.Context, messages any, tools []ToolDefinition, maxTokens int) (*Response, error) {
	reqBody := chatRequest{
		Model:       c.opts.Model,
		Messages:    messages,
		Temperature: c.opts.Temperature,
		MaxTokens:   maxTokens,
	}
	if len(tools) > 0 {
		reqBody.Tools = tools
		reqBody.ToolChoice = "auto"
	}
	return c.openAIRequest(ctx, reqBody)
}

func (c *Client) openAIRequest(ctx context.Context, reqBody chatRequest) (*Response, error) {
	start := time.Now()
	respBody, err := c.post(ctx, openAIPath, reqBody)
	if err != nil {
		return nil, err
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}

	choice := chatResp.Choices[0]
	c.logger.Debug("chat completion done",
		"model", c.opts.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"finish_reason", choice.FinishReason,
		"tool_calls", len(choice.Message.ToolCalls),
	)
	return &Response{
		Content:      strings.TrimSpace(choice.Message.Content),
		ToolCalls:    choice.Message.ToolCalls,
		FinishReason: choice.FinishReason,
	}, nil
}

func (c *Client) native(ctx context.Context, messages any, temperature float64) (*Response, error) {
	reqBody := nativeRequest{
		Model:    c.opts.Model,
		Messages: messages,
		Stream:   false,
		Options:  map[string]any{"temperature": temperature},
	}
	respBody, err := c.post(ctx, nativePath, reqBody)
	if err != nil {
		return nil, err
	}
	var out nativeResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("parsing native response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("API error: %s", out.Error)
	}
	content := out.Message.Content
	if content == "" {
		content = out.Response
	}
	return &Response{Content: strings.TrimSpace(content), Native: true}, nil
}

func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := c.opts.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("reading response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apiError{statusCode: resp.StatusCode, body: string(respBody)}
	}
	return respBody, nil
}
