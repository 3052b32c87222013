/*
config.go - Server configuration

PURPOSE:
  Loads server settings from the environment (prefix AMORT_) and an
  optional config file, with defaults for local development.

KEYS:
  AMORT_PORT               HTTP port (default 8080)
  AMORT_DB_PATH            SQLite path, ":memory:" for ephemeral (default amortization.db)
  AMORT_LOG_LEVEL          zerolog level (default info)
  AMORT_LOG_FORMAT         "json" or "console" (default json)
  AMORT_CORS_ORIGINS       comma-separated origins (default localhost dev servers)
  AMORT_SNAPSHOT_INTERVAL  snapshot scheduler period (default 1h)
  AMORT_SNAPSHOT_ENABLED   run the snapshot scheduler (default true)

SEE ALSO:
  - cmd/server/main.go: consumer
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const envPrefix = "AMORT"

// Config holds application configuration.
type Config struct {
	Port             int
	DBPath           string
	LogLevel         zerolog.Level
	LogFormat        string
	CORSOrigins      []string
	SnapshotInterval time.Duration
	SnapshotEnabled  bool
}

// Addr is the listen address for Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads configuration from the environment and, when configFile is
// not empty, from that file. Environment variables win over the file.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_PATH", "amortization.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CORS_ORIGINS", "")
	v.SetDefault("SNAPSHOT_INTERVAL", "1h")
	v.SetDefault("SNAPSHOT_ENABLED", true)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString("LOG_LEVEL")))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	interval, err := time.ParseDuration(v.GetString("SNAPSHOT_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid SNAPSHOT_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid SNAPSHOT_INTERVAL: must be positive, got %s", interval)
	}

	port := v.GetInt("PORT")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", v.GetString("PORT"))
	}

	format := strings.ToLower(v.GetString("LOG_FORMAT"))
	if format != "json" && format != "console" {
		return nil, fmt.Errorf("invalid LOG_FORMAT: %q (want json or console)", format)
	}

	return &Config{
		Port:             port,
		DBPath:           v.GetString("DB_PATH"),
		LogLevel:         level,
		LogFormat:        format,
		CORSOrigins:      splitList(v.GetString("CORS_ORIGINS")),
		SnapshotInterval: interval,
		SnapshotEnabled:  v.GetBool("SNAPSHOT_ENABLED"),
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
