// Package anthropic adapts the Anthropic Messages API to the llm.Provider
// capability.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/courseforge/courseforge/llm"
)

// Client implements llm.Provider for Anthropic's API.
type Client struct {
	client *anthropic.Client
	logger zerolog.Logger
}

// NewClient creates an Anthropic provider with the given API key.
func NewClient(apiKey string, logger zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		client: &client,
		logger: logger.With().Str("component", "anthropic").Logger(),
	}, nil
}

// ID implements llm.Provider.ID.
func (c *Client) ID() string {
	return "anthropic"
}

// Complete implements llm.Provider.Complete.
func (c *Client) Complete(ctx context.Context, model string, req *llm.GenerationRequest) (*llm.GenerationResult, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}

	var text strings.Builder
	for _, blockUnion := range message.Content {
		if block, ok := blockUnion.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(block.Text)
		}
	}

	tokens := int(message.Usage.InputTokens + message.Usage.OutputTokens)
	c.logger.Debug().
		Str("model", model).
		Int64("input_tokens", message.Usage.InputTokens).
		Int64("output_tokens", message.Usage.OutputTokens).
		Msg("Message completed")

	return &llm.GenerationResult{
		Text:       text.String(),
		TokensUsed: tokens,
	}, nil
}

// classifyError maps Anthropic API failures onto the llm error taxonomy.
// The SDK does not expose a stable error type across transports, so this
// matches on status indicators the same way retry handling elsewhere does.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewTimeoutError("anthropic request timed out", err)
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "429"),
		strings.Contains(errStr, "rate_limit"),
		strings.Contains(errStr, "rate limit"),
		strings.Contains(errStr, "Too Many Requests"):
		return llm.NewRateLimitError("anthropic rate limit", nil, err)
	default:
		return llm.NewTransportError("anthropic request failed", err)
	}
}
