package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/spicewatch/internal/common"
	"github.com/Veraticus/spicewatch/internal/detect"
	"github.com/Veraticus/spicewatch/internal/llm"
	"github.com/Veraticus/spicewatch/internal/pattern"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// DefaultDatabasePath is used when database.path is not configured.
func DefaultDatabasePath() string {
	return filepath.Join(DataDir(), "spicewatch.db")
}

// SetDefaults registers the default value of every known key.
func SetDefaults(v *viper.Viper) {
	d := detect.DefaultThresholds()

	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("detection.timezone", "Local")
	v.SetDefault("detection.duplicate_window", d.DuplicateWindow)
	v.SetDefault("detection.history_window", d.HistoryWindow)
	v.SetDefault("detection.spike_multiplier", d.SpikeMultiplier.InexactFloat64())
	v.SetDefault("detection.overuse_share", d.OveruseShare.InexactFloat64())
	v.SetDefault("detection.overuse_floor", d.OveruseFloor.InexactFloat64())
	v.SetDefault("detection.leak_max_amount", d.LeakMaxAmount.InexactFloat64())
	v.SetDefault("detection.leak_min_prior", d.LeakMinPrior)
	v.SetDefault("detection.high_value", d.HighValue.InexactFloat64())
	v.SetDefault("detection.preventive_ratio", d.PreventiveRatio.InexactFloat64())
	v.SetDefault("detection.odd_hour_start", d.OddHourStart)
	v.SetDefault("detection.odd_hour_end", d.OddHourEnd)
	v.SetDefault("detection.suspicious_keywords", d.SuspiciousKeywords)

	v.SetDefault("llm.enabled", true)
	v.SetDefault("llm.providers", []string{"openai", "anthropic", "gemini"})
	v.SetDefault("llm.timeout", llm.DefaultTimeout)
	v.SetDefault("llm.max_retries", llm.DefaultMaxRetries)
	v.SetDefault("llm.retry_delay", llm.DefaultRetryDelay)
	v.SetDefault("llm.cache_size", llm.DefaultCacheSize)
	v.SetDefault("llm.rate_limit", 0)
}

// DatabasePath returns the expanded database path.
func DatabasePath(v *viper.Viper) string {
	path := v.GetString("database.path")
	if path == "" {
		return DefaultDatabasePath()
	}
	return ExpandPath(path)
}

// OwnerID returns the configured owner, falling back to the login name.
func OwnerID(v *viper.Viper) string {
	if owner := strings.TrimSpace(v.GetString("owner")); owner != "" {
		return owner
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "default"
}

// Thresholds builds detector thresholds from the detection.* keys.
func Thresholds(v *viper.Viper) (detect.Thresholds, error) {
	loc, err := loadLocation(v.GetString("detection.timezone"))
	if err != nil {
		return detect.Thresholds{}, err
	}

	t := detect.Thresholds{
		Location:           loc,
		SuspiciousKeywords: v.GetStringSlice("detection.suspicious_keywords"),
		DuplicateWindow:    v.GetDuration("detection.duplicate_window"),
		HistoryWindow:      v.GetDuration("detection.history_window"),
		SpikeMultiplier:    decimal.NewFromFloat(v.GetFloat64("detection.spike_multiplier")),
		OveruseShare:       decimal.NewFromFloat(v.GetFloat64("detection.overuse_share")),
		OveruseFloor:       decimal.NewFromFloat(v.GetFloat64("detection.overuse_floor")),
		LeakMaxAmount:      decimal.NewFromFloat(v.GetFloat64("detection.leak_max_amount")),
		HighValue:          decimal.NewFromFloat(v.GetFloat64("detection.high_value")),
		PreventiveRatio:    decimal.NewFromFloat(v.GetFloat64("detection.preventive_ratio")),
		LeakMinPrior:       v.GetInt("detection.leak_min_prior"),
		OddHourStart:       v.GetInt("detection.odd_hour_start"),
		OddHourEnd:         v.GetInt("detection.odd_hour_end"),
	}

	if t.OddHourStart < 0 || t.OddHourEnd > 24 || t.OddHourStart > t.OddHourEnd {
		return detect.Thresholds{}, fmt.Errorf("%w: odd hours %d-%d", common.ErrInvalidConfig, t.OddHourStart, t.OddHourEnd)
	}
	if t.OveruseShare.GreaterThan(decimal.NewFromInt(1)) {
		return detect.Thresholds{}, fmt.Errorf("%w: overuse share must be at most 1", common.ErrInvalidConfig)
	}
	return t, nil
}

func loadLocation(name string) (*time.Location, error) {
	switch strings.TrimSpace(name) {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", common.ErrInvalidConfig, name, err)
	}
	return loc, nil
}

// providerEnvKeys are the conventional environment variables for API keys.
var providerEnvKeys = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// LLM builds the gateway configuration. Providers without an API key are
// left out. It reports false when classification is disabled or no provider
// has a key.
func LLM(v *viper.Viper) (llm.Config, bool) {
	if !v.GetBool("llm.enabled") {
		return llm.Config{}, false
	}

	cfg := llm.Config{
		Timeout:    v.GetDuration("llm.timeout"),
		MaxRetries: v.GetInt("llm.max_retries"),
		RetryDelay: v.GetDuration("llm.retry_delay"),
		CacheSize:  v.GetInt("llm.cache_size"),
		RateLimit:  v.GetInt("llm.rate_limit"),
	}

	for _, name := range v.GetStringSlice("llm.providers") {
		name = strings.ToLower(strings.TrimSpace(name))
		key := v.GetString("llm." + name + "_api_key")
		if key == "" {
			key = os.Getenv(providerEnvKeys[name])
		}
		if key == "" {
			continue
		}
		cfg.Providers = append(cfg.Providers, llm.ProviderConfig{
			Name:        name,
			APIKey:      key,
			Model:       v.GetString("llm." + name + "_model"),
			BaseURL:     v.GetString("llm." + name + "_base_url"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
		})
	}

	return cfg, len(cfg.Providers) > 0
}

// CategoryRules returns import.category_rules, or the built-in rules when
// none are configured.
func CategoryRules(v *viper.Viper) ([]pattern.Rule, error) {
	if !v.IsSet("import.category_rules") {
		return pattern.DefaultRules(), nil
	}
	var rules []pattern.Rule
	if err := v.UnmarshalKey("import.category_rules", &rules); err != nil {
		return nil, fmt.Errorf("%w: import.category_rules: %w", common.ErrInvalidConfig, err)
	}
	if v.GetBool("import.keep_default_rules") {
		rules = append(rules, pattern.DefaultRules()...)
	}
	return rules, nil
}
