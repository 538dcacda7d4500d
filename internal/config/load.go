package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/todo-go/internal/kv"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.todo/todo.toml or OS-specific config dir)
// 3. Project config file (todo.toml or .todo.toml in current directory)
// 4. Environment variables
// 5. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := LoadWithSources(fs, args)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
// Returns ConfigWithSources containing the config and a map of field names to their sources.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	sources := make(map[string]ConfigSource)
	cfg := &Config{}
	var files []string

	// 1. Set defaults (all fields start with default source)
	setDefaults(cfg)
	for _, field := range configFields() {
		sources[field] = SourceDefault
	}

	// 2. Try to load from user config file
	if userConfigFile := findUserConfigFile(); userConfigFile != "" {
		if err := loadConfigFile(cfg, userConfigFile, sources, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
		}
		files = append(files, userConfigFile)
	}

	// 3. Try to load from project config file (overrides user config)
	if projectConfigFile := findProjectConfigFile(); projectConfigFile != "" {
		if err := loadConfigFile(cfg, projectConfigFile, sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projectConfigFile, err)
		}
		files = append(files, projectConfigFile)
	}

	// 4. Override from environment
	if err := loadFromEnv(cfg, sources); err != nil {
		return nil, err
	}

	// 5. Parse CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 6. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return &ConfigWithSources{
		Config:  cfg,
		Sources: sources,
		Files:   files,
	}, nil
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"storage",
		"key",
		"data_dir",
		"redis.addr",
		"redis.password",
		"redis.db",
		"redis.prefix",
		"dsn",
		"title",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}

// loadConfigFile decodes a TOML file over cfg. Keys present in the file
// are attributed to source.
func loadConfigFile(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if sources == nil {
		return nil
	}
	for _, field := range configFields() {
		if meta.IsDefined(strings.Split(field, ".")...) {
			sources[field] = source
		}
	}
	return nil
}

// finalizeConfig normalizes values and expands paths.
func finalizeConfig(cfg *Config) error {
	cfg.Storage = kv.NormalizeBackend(cfg.Storage)
	if !kv.IsBackendRegistered(cfg.Storage) {
		return fmt.Errorf("unknown storage %q (expected %s)", cfg.Storage, strings.Join(kv.Backends(), "|"))
	}
	if strings.TrimSpace(cfg.Key) == "" {
		return fmt.Errorf("key must not be empty")
	}
	if cfg.Redis.DB < 0 {
		return fmt.Errorf("redis db must be >= 0, got %d", cfg.Redis.DB)
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}

	// Expand ~ in paths
	cfg.DataDir = expandPath(cfg.DataDir)
	cfg.LogDir = expandPath(cfg.LogDir)
	return nil
}
