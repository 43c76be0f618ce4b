// Package gemini implements the AIClient port using the Google Gen AI SDK.
// Every request runs through a keyring.Rotator so that a quota rejection on one
// API key moves on to the next configured key.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
	"github.com/ericfisherdev/krishiai/internal/keyring"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.0-flash"

// Compile-time interface satisfaction check.
var _ driven.AIClient = (*Client)(nil)

// Client implements the driven.AIClient port against the Gemini API.
// A genai.Client is built per attempt because each attempt may use a different key.
type Client struct {
	keys       driven.APIKeySource
	model      string
	rotator    *keyring.Rotator
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the API endpoint. Intended for tests against an httptest server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// NewClient creates a Gemini client. keys is consulted on every call.
func NewClient(keys driven.APIKeySource, model string, logger *slog.Logger, opts ...Option) *Client {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		keys:    keys,
		model:   model,
		rotator: keyring.NewRotator(Classifier(), logger),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classifier returns the retry classifier for Gemini errors: a structured
// RESOURCE_EXHAUSTED / HTTP 429 API error first, then the message heuristic.
func Classifier() keyring.Classifier {
	return keyring.Chain(keyring.ClassifierFunc(classifyAPIError), keyring.MessageClassifier{})
}

func classifyAPIError(err error) keyring.Outcome {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return outcomeFor(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return outcomeFor(*apiErrPtr)
	}
	return keyring.Terminal
}

func outcomeFor(apiErr genai.APIError) keyring.Outcome {
	if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
		return keyring.Retryable
	}
	return keyring.Terminal
}

// request describes one generateContent call.
type request struct {
	system   string
	contents []*genai.Content
	json     bool
}

// generate runs req with each configured key until one succeeds and returns
// the decoded result.
func generate[T any](ctx context.Context, c *Client, op string, req request, decode func(text string) (T, error)) (T, error) {
	var zero T

	keys, err := c.keys.AIKeys(ctx)
	if err != nil {
		return zero, fmt.Errorf("%s: resolve api keys: %w", op, err)
	}

	result, err := keyring.Execute(ctx, c.rotator, keys, func(ctx context.Context, key string) (T, error) {
		text, err := c.generateText(ctx, key, req)
		if err != nil {
			return zero, err
		}
		return decode(text)
	})
	if errors.Is(err, keyring.ErrNoCredentials) {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	if err != nil {
		return zero, fmt.Errorf("%s: %w: %w", op, driven.ErrAIRequestFailed, err)
	}
	return result, nil
}

// generateText performs exactly one API call with the given key.
func (c *Client) generateText(ctx context.Context, key string, req request) (string, error) {
	cfg := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("create genai client: %w", err)
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.4),
	}
	if req.system != "" {
		genCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(req.system)}}
	}
	if req.json {
		genCfg.ResponseMIMEType = "application/json"
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, req.contents, genCfg)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}

// decodeJSON strips an optional markdown code fence and unmarshals text into T.
func decodeJSON[T any](text string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &v); err != nil {
		return v, fmt.Errorf("decode model response: %w", err)
	}
	return v, nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence if present.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func userContent(parts ...*genai.Part) *genai.Content {
	return genai.NewContentFromParts(parts, genai.Role(genai.RoleUser))
}
