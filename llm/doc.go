// Package llm provides a provider-neutral gateway over text-generation APIs.
//
// The gateway owns every cross-provider concern so the pipeline stages above
// it never see vendor SDKs:
//
//  1. Fallback: a priority-ordered list of (provider, model) pairs is swept on
//     every call; rate limits and timeouts advance to the next model, then the
//     next provider.
//
//  2. Retry: the full sweep is repeated up to the request's retry budget with
//     a linearly growing delay between sweeps. Exhausting every provider on
//     every retry yields a terminal exhausted error, never empty content.
//
//  3. Throttling: call admission is serialized process-wide through a
//     single-slot gate that releases one permit per fixed interval. The gate
//     delays callers; it never drops calls.
//
//  4. Accounting: a UsageLedger counts requests, tokens, and errors per
//     wall-clock day. The ledger is advisory and never blocks a call.
//
//  5. Structured output: GenerateStructured extracts the first balanced JSON
//     value from the raw model text and decodes it, reporting a malformed
//     output error distinct from transport failures. Malformed output is
//     never retried by the gateway; semantic fallbacks belong to the caller.
//
// Provider adapters live in the subpackages llm/anthropic, llm/openai, and
// llm/ollama. Each translates the Provider capability onto one vendor SDK and
// maps vendor errors onto the *Error taxonomy defined here.
package llm
