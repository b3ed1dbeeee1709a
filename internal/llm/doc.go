// Package llm provides the classification gateway: it asks external language
// model providers whether a transaction looks irregular. It supports OpenAI,
// Anthropic and Gemini, with ordered provider fallback, retry with backoff on
// transient failures, a per-call timeout, rate limiting, and response caching.
package llm
