// Package config loads runtime settings from the environment, an optional
// .env file and an optional config.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sakif/wapanel/internal/placeholder"
)

// Config holds every setting the server and templatectl read.
type Config struct {
	Port            int
	DBPath          string
	JWTSecret       string
	AdminKeyHash    string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheTTL        time.Duration
	SystemOwnerTag  string
	MissingOptional placeholder.Policy
	LogLevel        slog.Level
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "data/wapanel.db")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("admin_key_hash", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("system_owner_tag", "system")
	v.SetDefault("missing_optional", string(placeholder.KeepMissing))
	v.SetDefault("log_level", "info")
}

// Load reads .env (if present) into the process environment, then resolves
// each key from env vars, config.yaml in the working directory, or defaults.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	return load(v)
}

// load resolves a Config from an already prepared viper instance.
func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Port:           v.GetInt("port"),
		DBPath:         strings.TrimSpace(v.GetString("db_path")),
		JWTSecret:      v.GetString("jwt_secret"),
		AdminKeyHash:   strings.TrimSpace(v.GetString("admin_key_hash")),
		RedisAddr:      strings.TrimSpace(v.GetString("redis_addr")),
		RedisPassword:  v.GetString("redis_password"),
		RedisDB:        v.GetInt("redis_db"),
		SystemOwnerTag: strings.TrimSpace(v.GetString("system_owner_tag")),
	}

	var problems []string

	if cfg.Port <= 0 || cfg.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT must be between 1 and 65535, got %d", cfg.Port))
	}
	if cfg.DBPath == "" {
		problems = append(problems, "DB_PATH must not be empty")
	}
	if cfg.SystemOwnerTag == "" {
		problems = append(problems, "SYSTEM_OWNER_TAG must not be empty")
	}
	if cfg.RedisDB < 0 {
		problems = append(problems, "REDIS_DB must not be negative")
	}

	ttl, err := time.ParseDuration(v.GetString("cache_ttl"))
	if err != nil || ttl < 0 {
		problems = append(problems, fmt.Sprintf("CACHE_TTL must be a non-negative duration, got %q", v.GetString("cache_ttl")))
	}
	cfg.CacheTTL = ttl

	policy, err := placeholder.ParsePolicy(v.GetString("missing_optional"))
	if err != nil {
		problems = append(problems, fmt.Sprintf("MISSING_OPTIONAL: %v", err))
	}
	cfg.MissingOptional = policy

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL must be debug, info, warn or error, got %q", v.GetString("log_level")))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}

	return cfg, nil
}
