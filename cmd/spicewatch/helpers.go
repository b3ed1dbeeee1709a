package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spicewatch/internal/common"
	"github.com/Veraticus/spicewatch/internal/config"
	"github.com/Veraticus/spicewatch/internal/detect"
	"github.com/Veraticus/spicewatch/internal/llm"
	"github.com/Veraticus/spicewatch/internal/service"
	"github.com/Veraticus/spicewatch/internal/storage"
	"github.com/spf13/viper"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath(viper.GetViper()))
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initClassifier builds the provider gateway, or returns nil when no provider
// is configured. Detection then runs on the deterministic detectors alone.
func initClassifier(ctx context.Context) (service.Classifier, error) {
	cfg, ok := config.LLM(viper.GetViper())
	if !ok {
		slog.Debug("no classification providers configured")
		return nil, nil
	}

	gateway, err := llm.NewGatewayFromConfig(ctx, cfg, slog.Default())
	if errors.Is(err, common.ErrNoProviders) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create classification gateway: %w", err)
	}
	return gateway, nil
}

// initEngine wires the detection engine to the store and optional classifier.
func initEngine(ctx context.Context, store *storage.SQLiteStorage) (*detect.Engine, error) {
	thresholds, err := config.Thresholds(viper.GetViper())
	if err != nil {
		return nil, err
	}

	classifier, err := initClassifier(ctx)
	if err != nil {
		return nil, err
	}

	return detect.NewEngine(detect.Config{
		Transactions: store,
		Budgets:      store,
		Anomalies:    store,
		Classifier:   classifier,
		Logger:       slog.Default(),
		Now:          time.Now,
		Thresholds:   thresholds,
	}), nil
}

func ownerID() string {
	return config.OwnerID(viper.GetViper())
}

// parseDate accepts a date or an RFC 3339 timestamp, in local time.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD, \"YYYY-MM-DD HH:MM\" or RFC 3339", value)
}
