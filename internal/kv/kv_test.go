package kv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// storeContract exercises the behaviour every backend must share.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "toDos"); err != nil || ok {
		t.Fatalf("Get on empty store: ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "toDos", `{"a":1}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get(ctx, "toDos")
	if err != nil || !ok {
		t.Fatalf("Get after Set: ok=%v err=%v", ok, err)
	}
	if got != `{"a":1}` {
		t.Errorf("Get: got %q", got)
	}

	if err := s.Set(ctx, "toDos", `{}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got, _, _ := s.Get(ctx, "toDos"); got != `{}` {
		t.Errorf("Get after overwrite: got %q", got)
	}

	if err := s.Set(ctx, "other", "x"); err != nil {
		t.Fatalf("Set other: %v", err)
	}
	if got, _, _ := s.Get(ctx, "toDos"); got != `{}` {
		t.Errorf("keys are not independent: got %q", got)
	}
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Set(ctx, "k", "v"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	storeContract(t, s)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "toDos.json"))
	if err != nil {
		t.Fatalf("expected toDos.json on disk: %v", err)
	}
	if string(data) != `{}` {
		t.Errorf("file content: got %q", data)
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := first.Set(ctx, "toDos", "saved"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	second, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	got, ok, err := second.Get(ctx, "toDos")
	if err != nil || !ok || got != "saved" {
		t.Errorf("Get from new instance: %q ok=%v err=%v", got, ok, err)
	}
}

func TestNewFileStoreEmptyDir(t *testing.T) {
	if _, err := NewFileStore("  "); err == nil {
		t.Error("expected error for empty dir")
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"toDos", "toDos"},
		{"my list", "my_list"},
		{"../escape", "escape"},
		{"a/b", "a_b"},
		{"", "default"},
		{"///", "default"},
	}
	for _, tt := range tests {
		if got := sanitizeKey(tt.in); got != tt.want {
			t.Errorf("sanitizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeBackend(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", BackendFile},
		{"File", BackendFile},
		{" redis ", BackendRedis},
		{"postgresql", BackendPostgres},
		{"pg", BackendPostgres},
		{"mysql", BackendMySQL},
	}
	for _, tt := range tests {
		if got := NormalizeBackend(tt.in); got != tt.want {
			t.Errorf("NormalizeBackend(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := Open(ctx, Options{Backend: "memory"})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer s.Close()
		if _, ok := s.(*MemoryStore); !ok {
			t.Errorf("expected *MemoryStore, got %T", s)
		}
	})

	t.Run("file is the default", func(t *testing.T) {
		s, err := Open(ctx, Options{DataDir: t.TempDir()})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer s.Close()
		if _, ok := s.(*FileStore); !ok {
			t.Errorf("expected *FileStore, got %T", s)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(ctx, Options{Backend: "floppy"})
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "floppy") {
			t.Errorf("error should name the backend: %v", err)
		}
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		if _, err := Open(ctx, Options{Backend: "postgres"}); err == nil {
			t.Error("expected error for empty dsn")
		}
	})

	t.Run("redis without address", func(t *testing.T) {
		if _, err := Open(ctx, Options{Backend: "redis"}); err == nil {
			t.Error("expected error for empty address")
		}
	})
}

func TestBackends(t *testing.T) {
	got := strings.Join(Backends(), ",")
	for _, name := range []string{BackendFile, BackendMemory, BackendMySQL, BackendPostgres, BackendRedis} {
		if !strings.Contains(got, name) {
			t.Errorf("Backends() = %s, missing %s", got, name)
		}
		if !IsBackendRegistered(name) {
			t.Errorf("IsBackendRegistered(%s) = false", name)
		}
	}
}
