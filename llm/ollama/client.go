// Package ollama adapts a local Ollama server to the llm.Provider capability.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/courseforge/courseforge/llm"
)

// Client implements llm.Provider for Ollama.
type Client struct {
	client *api.Client
}

// NewClient creates an Ollama provider. If host is empty the client is built
// from the environment (OLLAMA_HOST or http://localhost:11434).
func NewClient(host string) (*Client, error) {
	if host == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return &Client{client: client}, nil
	}

	baseURL, err := parseHost(host)
	if err != nil {
		return nil, fmt.Errorf("invalid host: %w", err)
	}
	return &Client{client: api.NewClient(baseURL, &http.Client{})}, nil
}

// parseHost parses a host string into a URL, defaulting the scheme to http.
func parseHost(host string) (*url.URL, error) {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return url.Parse(host)
}

// ID implements llm.Provider.ID.
func (c *Client) ID() string {
	return "ollama"
}

// Complete implements llm.Provider.Complete.
func (c *Client) Complete(ctx context.Context, model string, req *llm.GenerationRequest) (*llm.GenerationResult, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	messages := make([]api.Message, 0, 2)
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, api.Message{Role: "user", Content: req.Prompt})

	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   new(bool), // non-streaming
		Options:  make(map[string]interface{}),
	}
	if req.MaxTokens > 0 {
		chatReq.Options["num_predict"] = int(req.MaxTokens)
	}
	if req.Temperature > 0 {
		chatReq.Options["temperature"] = req.Temperature
	}
	if req.ExpectJSON {
		chatReq.Format = []byte(`"json"`)
	}

	var chatResp api.ChatResponse
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		chatResp = resp
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, llm.NewTimeoutError("ollama request timed out", err)
		}
		return nil, llm.NewTransportError("ollama chat request failed", err)
	}

	// Ollama may not report usage for every model.
	tokens := 0
	if chatResp.PromptEvalCount > 0 {
		tokens += chatResp.PromptEvalCount
	}
	if chatResp.EvalCount > 0 {
		tokens += chatResp.EvalCount
	}

	return &llm.GenerationResult{
		Text:       chatResp.Message.Content,
		TokensUsed: tokens,
	}, nil
}
