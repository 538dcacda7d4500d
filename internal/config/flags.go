package config

import (
	"flag"
)

// flagFields maps flag names to source field names.
var flagFields = map[string]string{
	"storage":        "storage",
	"key":            "key",
	"data-dir":       "data_dir",
	"redis-addr":     "redis.addr",
	"redis-password": "redis.password",
	"redis-db":       "redis.db",
	"redis-prefix":   "redis.prefix",
	"dsn":            "dsn",
	"title":          "title",
	"log-dir":        "log_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
}

// parseFlags defines the global flags on fs, bound to cfg, and parses args.
// Flags explicitly set are recorded in sources when it is non-nil.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("todo", flag.ContinueOnError)
	}

	// Storage
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage backend (file, memory, redis, postgres, mysql)")
	fs.StringVar(&cfg.Key, "key", cfg.Key, "Key the task list is saved under")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Data directory for file storage")
	fs.StringVar(&cfg.Redis.Addr, "redis-addr", cfg.Redis.Addr, "Redis address (host:port)")
	fs.StringVar(&cfg.Redis.Password, "redis-password", cfg.Redis.Password, "Redis password")
	fs.IntVar(&cfg.Redis.DB, "redis-db", cfg.Redis.DB, "Redis database number")
	fs.StringVar(&cfg.Redis.Prefix, "redis-prefix", cfg.Redis.Prefix, "Redis key prefix")
	fs.StringVar(&cfg.DSN, "dsn", cfg.DSN, "Database DSN for postgres or mysql storage")

	// Screen
	fs.StringVar(&cfg.Title, "title", cfg.Title, "Screen title")

	// Logging
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Log directory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if field, ok := flagFields[f.Name]; ok {
				sources[field] = SourceFlag
			}
		})
	}
	return nil
}
