// Package openai adapts the OpenAI chat completion API to the llm.Provider
// capability. Any OpenAI-compatible endpoint works via the base URL override.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/courseforge/courseforge/llm"
)

// OpenAI API errors don't expose retry-after headers through the SDK, so rate
// limits fall back to a fixed suggestion.
const defaultRetryAfter = 60 * time.Second

// Client implements llm.Provider for OpenAI's API.
type Client struct {
	client *openai.Client
}

// NewClient creates an OpenAI provider.
// baseURL and organization are optional.
func NewClient(apiKey, baseURL, organization string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if organization != "" {
		config.OrgID = organization
	}

	return &Client{client: openai.NewClientWithConfig(config)}, nil
}

// ID implements llm.Provider.ID.
func (c *Client) ID() string {
	return "openai"
}

// Complete implements llm.Provider.Complete.
func (c *Client) Complete(ctx context.Context, model string, req *llm.GenerationRequest) (*llm.GenerationResult, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = int(req.MaxTokens)
	}
	if req.Temperature > 0 {
		chatReq.Temperature = float32(req.Temperature)
	}
	if req.ExpectJSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	chatResp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, convertError(err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, llm.NewTransportError("openai returned no choices", nil)
	}

	return &llm.GenerationResult{
		Text:       chatResp.Choices[0].Message.Content,
		TokensUsed: chatResp.Usage.PromptTokens + chatResp.Usage.CompletionTokens,
	}, nil
}

// convertError maps OpenAI API errors onto the llm error taxonomy.
func convertError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewTimeoutError("openai request timed out", err)
	}

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return llm.NewTransportError("openai request failed", err)
	}

	switch apiErr.HTTPStatusCode {
	case http.StatusTooManyRequests:
		retryAfter := defaultRetryAfter
		return llm.NewRateLimitError(
			fmt.Sprintf("openai rate limit: %s", apiErr.Message),
			&retryAfter,
			err,
		)
	case http.StatusBadRequest:
		return llm.NewInvalidRequestError(fmt.Sprintf("openai invalid request: %s", apiErr.Message))
	default:
		return llm.NewTransportError(fmt.Sprintf("openai API error: %s", apiErr.Message), err)
	}
}
