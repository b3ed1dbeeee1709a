package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// NewClient creates a raw provider client based on the provided configuration.
func NewClient(ctx context.Context, cfg ProviderConfig) (Client, error) {
	switch strings.ToLower(cfg.Name) {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	case "gemini":
		return newGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Name)
	}
}

// NewGatewayFromConfig builds every configured provider and wraps them in a Gateway.
// A provider that cannot be built is skipped with a warning, so a missing key
// for a fallback does not disable classification altogether.
func NewGatewayFromConfig(ctx context.Context, cfg Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	clients := make([]Client, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		client, err := NewClient(ctx, p)
		if err != nil {
			logger.Warn("skipping classification provider", "provider", p.Name, "error", err)
			continue
		}
		clients = append(clients, client)
	}

	return NewGateway(clients, cfg, logger)
}
