package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// WebSearch is the general web-search fallback backend. It speaks a simple
// JSON search endpoint (any SerpAPI-compatible service works).
type WebSearch struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
	logger     zerolog.Logger
}

// NewWebSearch constructs the web-search backend client.
func NewWebSearch(endpoint, apiKey string, logger zerolog.Logger) *WebSearch {
	return &WebSearch{
		Endpoint: endpoint,
		APIKey:   apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With().Str("component", "websearch").Logger(),
	}
}

// Name implements Backend.Name.
func (s *WebSearch) Name() string {
	return "websearch"
}

// Search implements Backend.Search with a bounded retry on transient failures.
func (s *WebSearch) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if s.Endpoint == "" {
		return nil, fmt.Errorf("websearch: endpoint not configured")
	}
	if maxResults <= 0 {
		maxResults = DefaultResultLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", maxResults))
	endpoint := s.Endpoint + "?" + params.Encode()

	var parsed struct {
		Results []struct {
			Title   string  `json:"title"`
			Snippet string  `json:"snippet"`
			URL     string  `json:"url"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 500 * time.Millisecond
	eb.MaxInterval = 5 * time.Second
	eb.MaxElapsedTime = 20 * time.Second
	eb.Reset()
	b := backoff.WithContext(backoff.WithMaxRetries(eb, 2), ctx)

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("websearch: create request: %w", err))
		}
		if s.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.APIKey)
		}

		resp, err := s.HTTPClient.Do(req)
		if err != nil {
			return fmt.Errorf("websearch: request failed: %w", err)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("websearch: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("websearch: status %d", resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("websearch: decode response: %w", err))
		}
		return nil
	}

	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		results = append(results, Result{
			Title:   item.Title,
			Snippet: item.Snippet,
			URL:     item.URL,
			Score:   item.Score,
		})
	}

	s.logger.Debug().Str("query", query).Int("results", len(results)).Msg("Web search complete")
	return results, nil
}
