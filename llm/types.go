package llm

import (
	"context"
	"time"
)

// GenerationRequest describes a single text-generation call. Requests are
// immutable once handed to the gateway.
type GenerationRequest struct {
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int64
	ExpectJSON  bool
	Retries     int           // full provider-sweep retries, >= 1
	Timeout     time.Duration // per-attempt timeout, > 0
}

// GenerationResult is the outcome of one successful generation call.
// It is produced exactly once and never mutated.
type GenerationResult struct {
	Text       string
	ProviderID string
	Model      string
	TokensUsed int
	Latency    time.Duration
}

// Provider is the abstract text-generation capability the gateway composes.
// Implementations translate onto one vendor SDK and map vendor failures onto
// the *Error taxonomy so the gateway can classify them.
type Provider interface {
	// ID returns a short stable identifier, e.g. "anthropic".
	ID() string

	// Complete performs one generation attempt against the named model.
	// The context carries the per-attempt timeout set by the gateway.
	Complete(ctx context.Context, model string, req *GenerationRequest) (*GenerationResult, error)
}

// ProviderModels pairs a provider with its ordered candidate models.
// The gateway attempts models in slice order before moving on.
type ProviderModels struct {
	Provider Provider
	Models   []string
}
