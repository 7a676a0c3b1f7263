package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseDelay is the base unit of the between-sweep retry delay.
	// Sweep n waits n * DefaultBaseDelay before running again.
	DefaultBaseDelay = 1 * time.Second
)

// Gateway multiplexes generation calls over an ordered provider/model list
// with throttling, retry, fallback, and usage accounting.
type Gateway struct {
	providers []ProviderModels
	throttle  *Throttle
	ledger    *UsageLedger
	baseDelay time.Duration
	logger    zerolog.Logger
}

// GatewayOptions tunes a Gateway. Zero values select the defaults.
type GatewayOptions struct {
	ThrottleInterval time.Duration
	BaseDelay        time.Duration
}

// NewGateway creates a Gateway over the given priority-ordered providers.
func NewGateway(providers []ProviderModels, opts GatewayOptions, logger zerolog.Logger) *Gateway {
	interval := opts.ThrottleInterval
	if interval == 0 {
		interval = DefaultThrottleInterval
	}
	baseDelay := opts.BaseDelay
	if baseDelay == 0 {
		baseDelay = DefaultBaseDelay
	}
	return &Gateway{
		providers: providers,
		throttle:  NewThrottle(interval),
		ledger:    NewUsageLedger(),
		baseDelay: baseDelay,
		logger:    logger.With().Str("component", "gateway").Logger(),
	}
}

// Usage returns a snapshot of the gateway's usage ledger.
func (g *Gateway) Usage() UsageSnapshot {
	return g.ledger.Snapshot()
}

// Generate performs a generation call with full fallback semantics: the
// provider list is swept in priority order, the sweep is retried up to
// req.Retries times with a growing delay, and exhaustion yields a terminal
// error. A successful result always carries non-empty text.
func (g *Gateway) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= req.Retries; attempt++ {
		res, err := g.sweep(ctx, req)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		if attempt < req.Retries {
			delay := time.Duration(attempt) * g.baseDelay
			g.logger.Warn().
				Int("attempt", attempt).
				Int("retries", req.Retries).
				Dur("delay", delay).
				Err(err).
				Msg("Provider sweep failed, backing off before retry")
			if waitErr := sleepCtx(ctx, delay); waitErr != nil {
				return nil, waitErr
			}
		}
	}

	g.logger.Error().Err(lastErr).Msg("All providers exhausted")
	return nil, NewExhaustedError("all providers exhausted", lastErr)
}

// sweep attempts every model of every provider once, in priority order.
func (g *Gateway) sweep(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	var lastErr error
	for _, entry := range g.providers {
		for _, model := range entry.Models {
			res, err := g.attempt(ctx, entry.Provider, model, req)
			if err == nil {
				return res, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			g.logger.Debug().
				Str("provider", entry.Provider.ID()).
				Str("model", model).
				Err(err).
				Msg("Attempt failed, advancing fallback")
		}
	}
	if lastErr == nil {
		lastErr = NewInvalidRequestError("no providers configured")
	}
	return nil, lastErr
}

// attempt performs one throttled, timeout-bounded provider call and records
// it in the usage ledger.
func (g *Gateway) attempt(ctx context.Context, p Provider, model string, req *GenerationRequest) (*GenerationResult, error) {
	if err := g.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	started := time.Now()
	res, err := p.Complete(attemptCtx, model, req)
	elapsed := time.Since(started)

	if err != nil {
		g.ledger.RecordFailure()
		// A deadline hit on the attempt context is a timeout regardless of
		// how the provider reported it.
		if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() == context.DeadlineExceeded {
			return nil, NewTimeoutError(fmt.Sprintf("%s/%s timed out after %s", p.ID(), model, req.Timeout), err)
		}
		var llmErr *Error
		if errors.As(err, &llmErr) {
			return nil, err
		}
		return nil, NewTransportError(fmt.Sprintf("%s/%s call failed", p.ID(), model), err)
	}

	if res == nil || res.Text == "" {
		g.ledger.RecordFailure()
		return nil, NewTransportError(fmt.Sprintf("%s/%s returned empty content", p.ID(), model), nil)
	}

	g.ledger.RecordSuccess(res.TokensUsed)

	out := *res
	out.ProviderID = p.ID()
	out.Model = model
	out.Latency = elapsed
	g.logger.Debug().
		Str("provider", out.ProviderID).
		Str("model", out.Model).
		Int("tokens", out.TokensUsed).
		Dur("latency", out.Latency).
		Msg("Generation succeeded")
	return &out, nil
}

// Structured pairs a decoded value with the generation metadata it came from.
type Structured[T any] struct {
	Data T
	Meta GenerationResult
}

// GenerateStructured performs a generation call and decodes the first
// balanced JSON value in the response into T. The optional validate hook
// rejects structurally valid but semantically wrong payloads. Parse and
// validation failures are malformed-output errors and are never retried here;
// the caller owns any semantic fallback.
func GenerateStructured[T any](ctx context.Context, g *Gateway, req *GenerationRequest, validate func(*T) error) (*Structured[T], error) {
	res, err := g.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSON(res.Text)
	if err != nil {
		return nil, err
	}

	var data T
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, NewMalformedError("model output is not valid JSON", err)
	}

	if validate != nil {
		if err := validate(&data); err != nil {
			return nil, NewMalformedError("model output failed validation", err)
		}
	}

	return &Structured[T]{Data: data, Meta: *res}, nil
}

func validateRequest(req *GenerationRequest) error {
	switch {
	case req == nil:
		return NewInvalidRequestError("request is required")
	case req.Prompt == "":
		return NewInvalidRequestError("prompt is required")
	case req.Retries < 1:
		return NewInvalidRequestError("retries must be >= 1")
	case req.Timeout <= 0:
		return NewInvalidRequestError("timeout must be positive")
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
