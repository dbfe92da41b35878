// Package goodfire talks to the hosted interpretability API: streamed chat
// completions with feature steering, and feature search, contrast, inspection
// and neighbor lookups.
package goodfire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cotfaith/internal/llm"
)

// DefaultBaseURL is the default inference API base URL.
const DefaultBaseURL = "https://api.goodfire.ai/api/inference/v1"

// HTTPDoer abstracts HTTP clients used by the client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements llm.Completer and llm.FeatureService for one model variant.
type Client struct {
	APIKey  string
	BaseURL string
	Model   string
	HTTP    HTTPDoer
}

// New constructs a client with explicit settings.
func New(model, apiKey, baseURL string, timeout time.Duration, doer HTTPDoer) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if doer == nil {
		doer = &http.Client{Timeout: timeout}
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		HTTP:    doer,
	}, nil
}

// Complete sends the conversation and returns the full response text. Streamed
// fragments are concatenated in arrival order.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	body := chatRequest{
		Model:               c.Model,
		Messages:            req.Messages,
		Stream:              req.Stream,
		MaxCompletionTokens: req.MaxTokens,
		Controller:          buildController(req.Intervention),
	}
	resp, err := c.post(ctx, "/chat/completions", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if req.Stream {
		return readStream(ctx, resp.Body)
	}
	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return payload.Choices[0].Message.Content, nil
}

// Search returns the features whose descriptions best match query.
func (c *Client) Search(ctx context.Context, query string, topK int) ([]llm.Feature, error) {
	var out featureList
	if err := c.call(ctx, "/features/search", searchRequest{Query: query, Model: c.Model, TopK: topK}, &out); err != nil {
		return nil, fmt.Errorf("search features: %w", err)
	}
	return out.Features, nil
}

// Contrast returns the features most associated with each dataset.
func (c *Client) Contrast(ctx context.Context, req llm.ContrastRequest) ([]llm.Feature, []llm.Feature, error) {
	body := contrastRequest{
		Dataset1:    req.Dataset1,
		Dataset2:    req.Dataset2,
		Model:       c.Model,
		TopK:        req.TopK,
		RerankQuery: req.RerankQuery,
	}
	var out contrastResponse
	if err := c.call(ctx, "/features/contrast", body, &out); err != nil {
		return nil, nil, fmt.Errorf("contrast features: %w", err)
	}
	return out.Dataset1Features, out.Dataset2Features, nil
}

// Inspect returns feature activations for a conversation.
func (c *Client) Inspect(ctx context.Context, conversation []llm.Message) (llm.Inspection, error) {
	var out llm.Inspection
	if err := c.call(ctx, "/features/inspect", inspectRequest{Messages: conversation, Model: c.Model}, &out); err != nil {
		return llm.Inspection{}, fmt.Errorf("inspect features: %w", err)
	}
	return out, nil
}

// Neighbors returns the features nearest to feature.
func (c *Client) Neighbors(ctx context.Context, feature llm.Feature, topK int) ([]llm.Feature, error) {
	body := neighborsRequest{FeatureIDs: []string{feature.ID}, Model: c.Model, TopK: topK}
	var out featureList
	if err := c.call(ctx, "/features/neighbors", body, &out); err != nil {
		return nil, fmt.Errorf("feature neighbors: %w", err)
	}
	return out.Features, nil
}

// call posts body and decodes the JSON response into out.
func (c *Client) call(ctx context.Context, path string, body any, out any) error {
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// post sends an authenticated JSON request and checks the status code.
func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		text, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}
	return resp, nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

// Error renders the status and body.
func (err *StatusError) Error() string {
	return fmt.Sprintf("goodfire error (status %d): %s", err.Code, err.Body)
}
