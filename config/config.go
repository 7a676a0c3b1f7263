// Package config loads the application configuration: provider credentials
// and model priorities, gateway tuning, search backend endpoints, and cache
// settings. Values come from defaults, overlaid by an optional YAML file,
// with environment fallbacks for credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// ModelPreference is one entry of the gateway's priority-ordered fallback
// list: a provider and its ordered candidate models.
type ModelPreference struct {
	Provider string   `yaml:"provider"`         // "anthropic", "openai", or "ollama"
	Models   []string `yaml:"models,omitempty"` // attempted in order
}

// GatewayConfig tunes the model gateway.
type GatewayConfig struct {
	ThrottleIntervalMS int               `yaml:"throttle_interval_ms,omitempty"` // min spacing between call admissions
	BaseDelayMS        int               `yaml:"base_delay_ms,omitempty"`        // between-sweep retry delay unit
	Preferences        []ModelPreference `yaml:"preferences,omitempty"`
}

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
}

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key,omitempty"`
	BaseURL      string `yaml:"base_url,omitempty"`
	Organization string `yaml:"organization,omitempty"`
}

// OllamaConfig configures the Ollama provider.
type OllamaConfig struct {
	Host string `yaml:"host,omitempty"`
}

// ProvidersConfig groups provider credentials.
type ProvidersConfig struct {
	Anthropic AnthropicConfig `yaml:"anthropic,omitempty"`
	OpenAI    OpenAIConfig    `yaml:"openai,omitempty"`
	Ollama    OllamaConfig    `yaml:"ollama,omitempty"`
}

// EndpointConfig is a generic HTTP backend endpoint with optional credential.
type EndpointConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
}

// SearchConfig configures the context retriever's backends.
type SearchConfig struct {
	Knowledge         EndpointConfig `yaml:"knowledge,omitempty"`
	Web               EndpointConfig `yaml:"web,omitempty"`
	WikipediaEndpoint string         `yaml:"wikipedia_endpoint,omitempty"`
	ResultLimit       int            `yaml:"result_limit,omitempty"`
}

// CacheConfig configures the course cache.
type CacheConfig struct {
	Path          string `yaml:"path,omitempty"`
	TTLHours      int    `yaml:"ttl_hours,omitempty"`
	PurgeSchedule string `yaml:"purge_schedule,omitempty"` // cron expression
}

// Config is the root application configuration.
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway,omitempty"`
	Providers ProvidersConfig `yaml:"providers,omitempty"`
	Search    SearchConfig    `yaml:"search,omitempty"`
	Cache     CacheConfig     `yaml:"cache,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			ThrottleIntervalMS: 1000,
			BaseDelayMS:        1000,
			Preferences: []ModelPreference{
				{Provider: "anthropic", Models: []string{"claude-sonnet-4-5", "claude-haiku-4-5"}},
				{Provider: "openai", Models: []string{"gpt-4o", "gpt-4o-mini"}},
				{Provider: "ollama", Models: []string{"llama3.1"}},
			},
		},
		Search: SearchConfig{
			ResultLimit: 8,
		},
		Cache: CacheConfig{
			Path:          "courseforge.db",
			TTLHours:      int(7 * 24),
			PurgeSchedule: "@hourly",
		},
	}
}

// Load reads a YAML config file, overlays it on the defaults, and applies
// environment fallbacks for credentials. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // user-specified config path is intentional
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := mergo.Merge(cfg, Default()); err != nil {
		return nil, fmt.Errorf("merge config defaults: %w", err)
	}

	applyEnvFallbacks(cfg)
	return cfg, nil
}

// applyEnvFallbacks fills unset credentials from the environment.
func applyEnvFallbacks(cfg *Config) {
	if cfg.Providers.Anthropic.APIKey == "" {
		cfg.Providers.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Providers.OpenAI.APIKey == "" {
		cfg.Providers.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Providers.OpenAI.BaseURL == "" {
		cfg.Providers.OpenAI.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if cfg.Providers.Ollama.Host == "" {
		cfg.Providers.Ollama.Host = os.Getenv("OLLAMA_HOST")
	}
	if cfg.Search.Knowledge.APIKey == "" {
		cfg.Search.Knowledge.APIKey = os.Getenv("KNOWLEDGE_API_KEY")
	}
	if cfg.Search.Web.APIKey == "" {
		cfg.Search.Web.APIKey = os.Getenv("WEB_SEARCH_API_KEY")
	}
}

// ThrottleInterval returns the gateway admission interval as a duration.
func (c *GatewayConfig) ThrottleInterval() time.Duration {
	return time.Duration(c.ThrottleIntervalMS) * time.Millisecond
}

// BaseDelay returns the between-sweep retry delay unit as a duration.
func (c *GatewayConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMS) * time.Millisecond
}

// TTL returns the cache time-to-live as a duration.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}
