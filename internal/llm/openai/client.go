// Package openai adapts the OpenAI chat API to llm.Completer. It is used for the
// rewrite model that produces incorrect reasoning, which never takes feature edits.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"cotfaith/internal/llm"
)

// Client implements llm.Completer on top of go-openai.
type Client struct {
	api   *goopenai.Client
	model string
}

// New builds a client for model. An empty baseURL uses the public API.
func New(model, apiKey, baseURL string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	cfg := goopenai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{api: goopenai.NewClientWithConfig(cfg), model: model}, nil
}

// Complete returns the response text. Steering requests are rejected.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	if !req.Intervention.IsBaseline() {
		return "", llm.ErrInterventionUnsupported
	}
	chatReq := goopenai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxCompletionTokens = req.MaxTokens
	}
	if req.Stream {
		return c.stream(ctx, chatReq)
	}
	resp, err := c.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// stream concatenates streamed deltas.
func (c *Client) stream(ctx context.Context, chatReq goopenai.ChatCompletionRequest) (string, error) {
	chatReq.Stream = true
	stream, err := c.api.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("openai stream: %w", err)
	}
	defer stream.Close()
	var content strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return content.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("openai stream: %w", err)
		}
		for _, choice := range chunk.Choices {
			content.WriteString(choice.Delta.Content)
		}
	}
}

// toMessages converts chat turns to go-openai messages.
func toMessages(messages []llm.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := goopenai.ChatMessageRoleUser
		if msg.Role == llm.RoleAssistant {
			role = goopenai.ChatMessageRoleAssistant
		}
		out = append(out, goopenai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return out
}
