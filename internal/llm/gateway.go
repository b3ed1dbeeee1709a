package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spicewatch/internal/common"
	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/Veraticus/spicewatch/internal/service"
)

// Gateway asks external providers whether a transaction looks irregular.
//
// Providers are tried in order. Every provider but the last gets exactly one
// attempt and any failure falls through to the next. The last provider is
// retried with exponential backoff, but only for transient failures. When
// every provider fails the gateway has no opinion; it never returns an error.
type Gateway struct {
	cache     *classificationCache
	limiter   *rateLimiter
	logger    *slog.Logger
	providers []Client
	retryOpts service.RetryOptions
	timeout   time.Duration
}

var _ service.Classifier = (*Gateway)(nil)

// NewGateway wires providers into a gateway. Providers are used in the given order.
func NewGateway(providers []Client, cfg Config, logger *slog.Logger) (*Gateway, error) {
	if len(providers) == 0 {
		return nil, common.ErrNoProviders
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	return &Gateway{
		providers: providers,
		cache:     newClassificationCache(cfg.CacheSize),
		limiter:   newRateLimiter(cfg.RateLimit),
		logger:    logger,
		timeout:   cfg.Timeout,
		retryOpts: service.RetryOptions{
			MaxAttempts:  cfg.MaxRetries + 1,
			InitialDelay: cfg.RetryDelay,
			MaxDelay:     cfg.MaxRetryDelay,
			Multiplier:   2.0,
		},
	}, nil
}

// Classify returns the providers' opinion of txn, or false when none could
// be obtained.
func (g *Gateway) Classify(ctx context.Context, txn model.Transaction) (*model.Classification, bool) {
	key := cacheKey(txn)
	if cached, ok := g.cache.get(key); ok {
		g.logger.Debug("classification cache hit",
			"transaction_id", txn.ID,
			"key", key)
		return &cached, true
	}

	prompt := buildPrompt(txn)
	last := len(g.providers) - 1

	for _, provider := range g.providers[:last] {
		result, err := g.attempt(ctx, provider, prompt)
		if err == nil {
			return g.remember(key, txn, result), true
		}
		g.logger.Warn("classification provider failed, falling back",
			"provider", provider.Name(),
			"transaction_id", txn.ID,
			"error", err)
	}

	final := g.providers[last]
	var result model.Classification
	err := common.WithRetry(ctx, func() error {
		r, attemptErr := g.attempt(ctx, final, prompt)
		if attemptErr != nil {
			return attemptErr
		}
		result = r
		return nil
	}, g.retryOpts)
	if err != nil {
		g.logger.Warn("classification unavailable",
			"provider", final.Name(),
			"transaction_id", txn.ID,
			"error", err)
		return nil, false
	}

	return g.remember(key, txn, result), true
}

func (g *Gateway) remember(key string, txn model.Transaction, result model.Classification) *model.Classification {
	g.cache.set(key, result)
	g.logger.Info("transaction classified",
		"transaction_id", txn.ID,
		"provider", result.Provider,
		"is_anomaly", result.IsAnomaly,
		"severity", result.Severity,
		"confidence", result.Confidence)
	return &result
}

type completion struct {
	err  error
	text string
}

// attempt makes one bounded call to provider. The returned error is always a
// *common.RetryableError so the retry loop can tell transient from fatal.
func (g *Gateway) attempt(ctx context.Context, provider Client, prompt string) (model.Classification, error) {
	if err := g.limiter.wait(ctx); err != nil {
		return model.Classification{}, common.Permanent(err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	// The provider runs in its own goroutine so a client that ignores its
	// context still cannot hold the caller past the timeout.
	done := make(chan completion, 1)
	go func() {
		text, err := provider.Complete(callCtx, prompt)
		done <- completion{text: text, err: err}
	}()

	var c completion
	select {
	case c = <-done:
	case <-callCtx.Done():
		return model.Classification{}, classifyError(fmt.Errorf("%s: %w", provider.Name(), callCtx.Err()))
	}
	if c.err != nil {
		return model.Classification{}, classifyError(fmt.Errorf("%s: %w", provider.Name(), c.err))
	}

	result, err := parseClassification(c.text)
	if err != nil {
		return model.Classification{}, common.Permanent(fmt.Errorf("%s: %w", provider.Name(), err))
	}
	result.Provider = provider.Name()
	return result, nil
}

// CacheSize reports how many classifications are cached.
func (g *Gateway) CacheSize() int {
	return g.cache.size()
}

// ResetCache drops every cached classification.
func (g *Gateway) ResetCache() {
	g.cache.clear()
}
