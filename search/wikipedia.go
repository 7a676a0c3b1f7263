package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultWikipediaEndpoint = "https://en.wikipedia.org/w/api.php"

// htmlTagPattern strips the search-match markup MediaWiki embeds in snippets.
var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// Wikipedia is the encyclopedic fallback backend, built on the MediaWiki
// search API.
type Wikipedia struct {
	Endpoint   string
	HTTPClient *http.Client
	logger     zerolog.Logger
}

// NewWikipedia constructs the encyclopedia backend. An empty endpoint selects
// English Wikipedia.
func NewWikipedia(endpoint string, logger zerolog.Logger) *Wikipedia {
	if endpoint == "" {
		endpoint = defaultWikipediaEndpoint
	}
	return &Wikipedia{
		Endpoint: endpoint,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With().Str("component", "wikipedia").Logger(),
	}
}

// Name implements Backend.Name.
func (w *Wikipedia) Name() string {
	return "wikipedia"
}

// Search implements Backend.Search. Result scores are positional: the API
// already returns matches ordered by its own relevance.
func (w *Wikipedia) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = DefaultResultLimit
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", fmt.Sprintf("%d", maxResults))
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("wikipedia: create request: %w", err)
	}

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia: request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia: status %d", resp.StatusCode)
	}

	var parsed struct {
		Query struct {
			Search []struct {
				Title   string `json:"title"`
				Snippet string `json:"snippet"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("wikipedia: decode response: %w", err)
	}

	items := parsed.Query.Search
	results := make([]Result, 0, len(items))
	for i, item := range items {
		results = append(results, Result{
			Title:   item.Title,
			Snippet: htmlTagPattern.ReplaceAllString(item.Snippet, ""),
			URL:     "https://en.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(item.Title, " ", "_")),
			Score:   1.0 - float64(i)/float64(len(items)+1),
		})
	}

	w.logger.Debug().Str("query", query).Int("results", len(results)).Msg("Wikipedia search complete")
	return results, nil
}
