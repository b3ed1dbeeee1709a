package llm

import (
	"context"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	// Name identifies the provider in logs and evidence.
	Name() string
	// Complete sends prompt and returns the raw text of the model's answer.
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderConfig holds settings for a single provider.
type ProviderConfig struct {
	Name        string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// Config holds configuration for the classification gateway.
type Config struct {
	// Providers are tried in order; only the last one is retried.
	Providers     []ProviderConfig
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	CacheSize     int
	RateLimit     int
}

// Defaults for the gateway.
const (
	DefaultTimeout    = 20 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
	DefaultCacheSize  = 1000
)

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	} else if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = 30 * time.Second
	}
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	return c
}

const systemPrompt = "You review personal finance transactions for irregularities. " +
	"You MUST respond with ONLY a valid JSON object of the form " +
	`{"isAnomaly": bool, "severity": "LOW"|"MEDIUM"|"HIGH", "explanation": string, "confidence": number}. ` +
	"Do not include markdown or commentary."
