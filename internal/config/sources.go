package config

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"

	"github.com/nibzard/todo-go/internal/appdir"
)

// findProjectConfigFile looks for a config file in the current directory.
func findProjectConfigFile() string {
	for _, name := range []string{appdir.ConfigFile, appdir.HiddenConfigFile} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// findUserConfigFile looks for a user-level config file.
// Checks ~/.todo/todo.toml first, then falls back to OS-specific
// config directories.
func findUserConfigFile() string {
	if home, err := appdir.Home(); err == nil {
		userConfigPath := filepath.Join(home, appdir.ConfigFile)
		if _, err := os.Stat(userConfigPath); err == nil {
			return userConfigPath
		}
	}

	if cfgDir := osUserConfigDir(); cfgDir != "" {
		userConfigPath := filepath.Join(cfgDir, "todo", appdir.ConfigFile)
		if _, err := os.Stat(userConfigPath); err == nil {
			return userConfigPath
		}
	}

	return ""
}

// osUserConfigDir returns the OS-specific user config directory.
// Returns empty string if the directory cannot be determined.
func osUserConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			return appdata
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, "Library", "Application Support")
		}
	case "linux", "openbsd", "freebsd", "netbsd":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg
		}
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, ".config")
		}
	}
	return ""
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.Storage = DefaultStorage
	cfg.Key = DefaultKey
	cfg.DataDir = DefaultDataDir
	cfg.LogDir = DefaultLogDir
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.Title = DefaultTitle
}

// GetConfigFile returns the highest-priority config file that was read.
func (cws *ConfigWithSources) GetConfigFile() string {
	if len(cws.Files) == 0 {
		return ""
	}
	return cws.Files[len(cws.Files)-1]
}

// SortedFields returns the tracked field names in a stable order.
func (cws *ConfigWithSources) SortedFields() []string {
	fields := make([]string, 0, len(cws.Sources))
	for field := range cws.Sources {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Value returns the display value of a tracked field. Secrets are masked.
func (cws *ConfigWithSources) Value(field string) string {
	cfg := cws.Config
	switch field {
	case "storage":
		return cfg.Storage
	case "key":
		return cfg.Key
	case "data_dir":
		return cfg.DataDir
	case "redis.addr":
		return cfg.Redis.Addr
	case "redis.password":
		return mask(cfg.Redis.Password)
	case "redis.db":
		return strconv.Itoa(cfg.Redis.DB)
	case "redis.prefix":
		return cfg.Redis.Prefix
	case "dsn":
		return mask(cfg.DSN)
	case "title":
		return cfg.Title
	case "log_dir":
		return cfg.LogDir
	case "log_level":
		return cfg.LogLevel
	case "log_format":
		return cfg.LogFormat
	case "log_timestamps":
		return strconv.FormatBool(cfg.LogTimestamps)
	case "log_caller":
		return strconv.FormatBool(cfg.LogCaller)
	}
	return ""
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
