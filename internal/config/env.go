package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TODO_"

// loadFromEnv overrides config from TODO_* environment variables.
// If sources is non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) error {
	set := func(field string) {
		if sources != nil {
			sources[field] = SourceEnv
		}
	}

	if v := os.Getenv("TODO_STORAGE"); v != "" {
		cfg.Storage = v
		set("storage")
	}
	if v := os.Getenv("TODO_KEY"); v != "" {
		cfg.Key = v
		set("key")
	}
	if v := os.Getenv("TODO_DATA_DIR"); v != "" {
		cfg.DataDir = v
		set("data_dir")
	}
	if v := os.Getenv("TODO_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		set("redis.addr")
	}
	if v := os.Getenv("TODO_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
		set("redis.password")
	}
	if v := os.Getenv("TODO_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("TODO_REDIS_DB: %w", err)
		}
		cfg.Redis.DB = db
		set("redis.db")
	}
	if v := os.Getenv("TODO_REDIS_PREFIX"); v != "" {
		cfg.Redis.Prefix = v
		set("redis.prefix")
	}
	if v := os.Getenv("TODO_DSN"); v != "" {
		cfg.DSN = v
		set("dsn")
	}
	if v := os.Getenv("TODO_TITLE"); v != "" {
		cfg.Title = v
		set("title")
	}
	if v := os.Getenv("TODO_LOG_DIR"); v != "" {
		cfg.LogDir = v
		set("log_dir")
	}
	if v := os.Getenv("TODO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
		set("log_level")
	}
	if v := os.Getenv("TODO_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
		set("log_format")
	}
	if v := os.Getenv("TODO_LOG_TIMESTAMPS"); v != "" {
		cfg.LogTimestamps = boolFromString(v)
		set("log_timestamps")
	}
	if v := os.Getenv("TODO_LOG_CALLER"); v != "" {
		cfg.LogCaller = boolFromString(v)
		set("log_caller")
	}
	return nil
}

// boolFromString parses a boolean from a string.
func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
