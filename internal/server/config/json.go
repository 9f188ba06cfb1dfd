package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/itemkeeper/internal/flagx"
	"github.com/dmitrijs2005/itemkeeper/internal/timex"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// JsonConfig is the on-disk shape of a JSON config file. Durations accept
// strings such as "120m" or "200d" as well as integer nanoseconds. Absent
// fields leave the current value untouched.
type JsonConfig struct {
	HTTPAddr                     string          `json:"http_addr"`
	DatabaseDSN                  string          `json:"database_dsn"`
	SecretKey                    string          `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	MaxTokensPerUser             *int            `json:"max_tokens_per_user"`
	SweepInterval                *timex.Duration `json:"sweep_interval"`
	RunMigrations                *bool           `json:"run_migrations"`
	LogLevel                     string          `json:"log_level"`
}

// parseFile loads the file named by -c / -config, if any. Files ending in
// .yaml or .yml are read with koanf, everything else is treated as JSON.
func parseFile(config *Config) {
	path := flagx.ConfigFile(configArgs())
	if path == "" {
		return
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parseYaml(config, path)
	default:
		parseJson(config, path)
	}
}

func parseJson(config *Config, path string) {
	c := &JsonConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	if c.HTTPAddr != "" {
		config.HTTPAddr = c.HTTPAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.MaxTokensPerUser != nil {
		config.MaxTokensPerUser = *c.MaxTokensPerUser
	}
	if c.SweepInterval != nil {
		config.SweepInterval = c.SweepInterval.Duration
	}
	if c.RunMigrations != nil {
		config.RunMigrations = *c.RunMigrations
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
}

// parseYaml reads the same keys as JsonConfig from a YAML document.
func parseYaml(config *Config, path string) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		panic(err)
	}
	if err := applyKoanf(config, k); err != nil {
		panic(err)
	}
}
