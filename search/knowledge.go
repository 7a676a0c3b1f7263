package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/courseforge/courseforge/course"
)

// KnowledgeAPI is the primary aggregated knowledge backend: one endpoint that
// returns outlines, articles, and key facts for a topic in a single response.
type KnowledgeAPI struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
	logger     zerolog.Logger
}

// NewKnowledgeAPI constructs the primary knowledge backend client.
func NewKnowledgeAPI(endpoint, apiKey string, logger zerolog.Logger) *KnowledgeAPI {
	return &KnowledgeAPI{
		Endpoint: endpoint,
		APIKey:   apiKey,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger.With().Str("component", "knowledgeAPI").Logger(),
	}
}

// Name implements BundleBackend.Name.
func (k *KnowledgeAPI) Name() string {
	return "knowledge_api"
}

// knowledgeResponse is the wire shape of the aggregated endpoint.
type knowledgeResponse struct {
	Outlines []struct {
		Source  string   `json:"source"`
		Title   string   `json:"title"`
		Modules []string `json:"modules"`
	} `json:"outlines"`
	Articles []struct {
		Title   string  `json:"title"`
		Snippet string  `json:"snippet"`
		URL     string  `json:"url"`
		Score   float64 `json:"score"`
	} `json:"articles"`
	KeyFacts           []string `json:"key_facts"`
	SuggestedStructure []string `json:"suggested_structure"`
}

// Fetch implements BundleBackend.Fetch with retry on transient failures.
func (k *KnowledgeAPI) Fetch(ctx context.Context, topic string, topicType course.TopicType, limit int) (*course.ContextBundle, error) {
	if k.Endpoint == "" {
		return nil, fmt.Errorf("knowledge api: endpoint not configured")
	}

	query := url.Values{}
	query.Set("topic", topic)
	query.Set("type", string(topicType))
	query.Set("limit", fmt.Sprintf("%d", limit))
	endpoint := k.Endpoint + "?" + query.Encode()

	var parsed knowledgeResponse

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 500 * time.Millisecond
	eb.Multiplier = 2.0
	eb.MaxInterval = 10 * time.Second
	eb.MaxElapsedTime = 30 * time.Second
	eb.Reset()
	b := backoff.WithContext(backoff.WithMaxRetries(eb, 2), ctx)

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("knowledge api: create request: %w", err))
		}
		if k.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+k.APIKey)
		}

		resp, err := k.HTTPClient.Do(req)
		if err != nil {
			return fmt.Errorf("knowledge api: request failed: %w", err)
		}
		defer resp.Body.Close() //nolint:errcheck

		switch {
		case resp.StatusCode == http.StatusOK:
			// fall through to decode
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("knowledge api: status %d", resp.StatusCode)
		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("knowledge api: status %d: %s", resp.StatusCode, string(body)))
		}

		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("knowledge api: decode response: %w", err))
		}
		return nil
	}

	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}

	bundle := &course.ContextBundle{
		KeyFacts:           parsed.KeyFacts,
		SuggestedStructure: parsed.SuggestedStructure,
	}
	for _, o := range parsed.Outlines {
		bundle.Outlines = append(bundle.Outlines, course.Outline{Source: o.Source, Title: o.Title, Modules: o.Modules})
	}
	for _, a := range parsed.Articles {
		bundle.Articles = append(bundle.Articles, course.Article{
			Title:     a.Title,
			Snippet:   a.Snippet,
			URL:       a.URL,
			Relevance: a.Score,
		})
	}

	k.logger.Debug().
		Str("topic", topic).
		Int("outlines", len(bundle.Outlines)).
		Int("articles", len(bundle.Articles)).
		Msg("Knowledge API fetch complete")
	return bundle, nil
}
