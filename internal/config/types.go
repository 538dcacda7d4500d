package config

import (
	"github.com/nibzard/todo-go/internal/appdir"
	"github.com/nibzard/todo-go/internal/kv"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource

	// Files lists the config files that were read, in load order.
	Files []string
}

// Default values.
const (
	DefaultStorage   = kv.BackendFile
	DefaultKey       = "toDos"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultTitle     = "뭐하지?"
)

// DefaultDataDir is where the file backend keeps its values.
var DefaultDataDir = appdir.DataPath("")

// DefaultLogDir is where interactive runs write their logs.
var DefaultLogDir = appdir.LogsPath("")

// Config holds the full configuration for todo.
type Config struct {
	// Storage backend: file, memory, redis, postgres, mysql
	Storage string `toml:"storage"`

	// Key the task collection is saved under
	Key string `toml:"key"`

	// file backend
	DataDir string `toml:"data_dir"`

	// redis backend
	Redis RedisConfig `toml:"redis"`

	// postgres and mysql backends
	DSN string `toml:"dsn"`

	// Screen title
	Title string `toml:"title"`

	// Logging configuration
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`
}

// RedisConfig holds the redis backend settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// KVOptions returns the storage options described by the config.
func (c *Config) KVOptions() kv.Options {
	return kv.Options{
		Backend:       c.Storage,
		DataDir:       c.DataDir,
		RedisAddr:     c.Redis.Addr,
		RedisPassword: c.Redis.Password,
		RedisDB:       c.Redis.DB,
		RedisPrefix:   c.Redis.Prefix,
		DSN:           c.DSN,
	}
}
