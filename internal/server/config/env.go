package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/itemkeeper/internal/timex"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// parseEnv overlays variables such as ITEMKEEPER_DATABASE_DSN or
// ITEMKEEPER_ACCESS_TOKEN_VALIDITY_DURATION=90m onto config.
func parseEnv(config *Config, prefix string) {
	k := koanf.New(".")

	transform := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, prefix))
	}
	if err := k.Load(env.Provider(prefix, ".", transform), nil); err != nil {
		panic(err)
	}

	if err := applyKoanf(config, k); err != nil {
		panic(err)
	}
}

// applyKoanf copies every known key present in k onto config. Keys use the
// JSON file names.
func applyKoanf(config *Config, k *koanf.Koanf) error {
	strs := map[string]*string{
		"http_addr":    &config.HTTPAddr,
		"database_dsn": &config.DatabaseDSN,
		"secret_key":   &config.SecretKey,
		"log_level":    &config.LogLevel,
	}
	for key, dst := range strs {
		if k.Exists(key) {
			*dst = k.String(key)
		}
	}

	durations := map[string]*time.Duration{
		"access_token_validity_duration":  &config.AccessTokenValidityDuration,
		"refresh_token_validity_duration": &config.RefreshTokenValidityDuration,
		"sweep_interval":                  &config.SweepInterval,
	}
	for key, dst := range durations {
		if !k.Exists(key) {
			continue
		}
		d, err := timex.ParseDuration(k.String(key))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if k.Exists("max_tokens_per_user") {
		config.MaxTokensPerUser = k.Int("max_tokens_per_user")
	}
	if k.Exists("run_migrations") {
		config.RunMigrations = k.Bool("run_migrations")
	}
	return nil
}
