package kv

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Store is a string key-value store.
type Store interface {
	// Get returns the value for key. ok is false when the key was never set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Close releases the store's resources.
	Close() error
}

// Backend names.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

// Options configures Open.
type Options struct {
	Backend string

	// file
	DataDir string

	// redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// postgres, mysql
	DSN string
}

// Factory opens a Store from Options.
type Factory func(ctx context.Context, opts Options) (Store, error)

// Registry holds registered backends and their factories.
var Registry = map[string]Factory{}

// Register registers a backend name with its factory.
func Register(name string, factory Factory) {
	Registry[NormalizeBackend(name)] = factory
}

// init registers the built-in backends.
func init() {
	Register(BackendMemory, func(ctx context.Context, opts Options) (Store, error) {
		return NewMemoryStore(), nil
	})
	Register(BackendFile, func(ctx context.Context, opts Options) (Store, error) {
		return NewFileStore(opts.DataDir)
	})
	Register(BackendRedis, func(ctx context.Context, opts Options) (Store, error) {
		return DialRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix)
	})
	Register(BackendPostgres, func(ctx context.Context, opts Options) (Store, error) {
		return OpenSQL(ctx, DialectPostgres, opts.DSN)
	})
	Register(BackendMySQL, func(ctx context.Context, opts Options) (Store, error) {
		return OpenSQL(ctx, DialectMySQL, opts.DSN)
	})
}

// NormalizeBackend lowercases and trims a backend name.
// "postgresql" and "pg" are accepted for postgres.
func NormalizeBackend(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "postgresql", "pg":
		return BackendPostgres
	case "":
		return BackendFile
	}
	return name
}

// IsBackendRegistered returns true if the backend name is registered.
func IsBackendRegistered(name string) bool {
	_, ok := Registry[NormalizeBackend(name)]
	return ok
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	name := NormalizeBackend(opts.Backend)
	factory, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown storage backend %q (expected %s)", opts.Backend, strings.Join(Backends(), "|"))
	}
	store, err := factory(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", name, err)
	}
	return store, nil
}
