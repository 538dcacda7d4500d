// Package cmd provides tests for CLI command handlers.
package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/nibzard/todo-go/internal/config"
	"github.com/nibzard/todo-go/internal/kv"
	"github.com/nibzard/todo-go/internal/ui"
)

type testEnv struct {
	dataDir string
	logDir  string
	out     *bytes.Buffer
	errOut  *bytes.Buffer
}

// newTestEnv isolates config lookup and captures command output.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, env := range os.Environ() {
		name, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(name, config.EnvPrefix) {
			t.Setenv(name, "")
		}
	}
	chdir(t, t.TempDir())

	env := &testEnv{
		dataDir: filepath.Join(home, "data"),
		logDir:  filepath.Join(home, "logs"),
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
	}
	t.Setenv("TODO_DATA_DIR", env.dataDir)
	t.Setenv("TODO_LOG_DIR", env.logDir)

	oldOut, oldErr := stdout, stderr
	stdout, stderr = env.out, env.errOut
	t.Cleanup(func() {
		stdout, stderr = oldOut, oldErr
	})
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	e.out.Reset()
	err := Run(context.Background(), args)
	return e.out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("Run(%v) error = %v\nstderr: %s", args, err, e.errOut.String())
	}
	return out
}

// TestRun tests the main Run function.
func TestRun(t *testing.T) {
	t.Run("shows help with --help flag", func(t *testing.T) {
		env := newTestEnv(t)
		out := env.mustRun(t, "--help")
		if !strings.Contains(out, "Usage:") {
			t.Errorf("expected usage, got %q", out)
		}
	})

	t.Run("shows help with -h flag", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun(t, "-h")
	})

	t.Run("shows version with --version flag", func(t *testing.T) {
		env := newTestEnv(t)
		out := env.mustRun(t, "--version")
		if !strings.Contains(out, "todo version "+Version) {
			t.Errorf("unexpected version output %q", out)
		}
	})

	t.Run("shows version with -v flag", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun(t, "-v")
	})

	t.Run("shows help with help command", func(t *testing.T) {
		env := newTestEnv(t)
		out := env.mustRun(t, "help")
		if !strings.Contains(out, "Commands:") {
			t.Errorf("expected command list, got %q", out)
		}
	})

	t.Run("unknown command returns error", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.run(t, "unknown-command")
		if err == nil {
			t.Fatal("expected error for unknown command, got nil")
		}
		if !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("expected 'unknown command' error, got %v", err)
		}
	})

	t.Run("invalid storage is a config error", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.run(t, "-storage", "floppy", "ls")
		if err == nil || !strings.Contains(err.Error(), "loading config") {
			t.Errorf("expected config error, got %v", err)
		}
	})

	t.Run("tui without a terminal", func(t *testing.T) {
		if ui.IsTTY(os.Stdout) {
			t.Skip("stdout is a terminal")
		}
		env := newTestEnv(t)
		_, err := env.run(t)
		if err == nil || !strings.Contains(err.Error(), "TTY") {
			t.Errorf("expected TTY error, got %v", err)
		}
	})
}

func TestAddAndList(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "add", "buy", "milk")
	if !strings.Contains(out, "Added 1: buy milk") {
		t.Errorf("add output = %q", out)
	}
	env.mustRun(t, "add", "walk dog")

	out = env.mustRun(t, "ls")
	if !strings.Contains(out, "1. [ ] buy milk") || !strings.Contains(out, "2. [ ] walk dog") {
		t.Errorf("ls output = %q", out)
	}
	if strings.Index(out, "buy milk") > strings.Index(out, "walk dog") {
		t.Error("tasks not listed in insertion order")
	}
}

func TestAddBlankText(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(t, "add", "   "); err == nil {
		t.Fatal("expected error for blank text")
	}
	if _, err := env.run(t, "add"); err == nil {
		t.Fatal("expected error for missing text")
	}
	out := env.mustRun(t, "ls")
	if !strings.Contains(out, "No tasks found.") {
		t.Errorf("ls output = %q", out)
	}
}

func TestCompleteAndReopen(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add", "buy milk")
	env.mustRun(t, "add", "walk dog")

	out := env.mustRun(t, "done", "2")
	if !strings.Contains(out, "Completed 2: walk dog") {
		t.Errorf("done output = %q", out)
	}

	out = env.mustRun(t, "ls", "-done")
	if !strings.Contains(out, "2. [x] walk dog") || strings.Contains(out, "buy milk") {
		t.Errorf("ls -done output = %q", out)
	}
	out = env.mustRun(t, "ls", "-active")
	if !strings.Contains(out, "1. [ ] buy milk") || strings.Contains(out, "walk dog") {
		t.Errorf("ls -active output = %q", out)
	}

	out = env.mustRun(t, "undone", "2")
	if !strings.Contains(out, "Reopened 2: walk dog") {
		t.Errorf("undone output = %q", out)
	}
	out = env.mustRun(t, "ls", "-done")
	if !strings.Contains(out, "No tasks found.") {
		t.Errorf("ls -done after undone = %q", out)
	}
}

func TestListFlags(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add", "buy milk")

	if _, err := env.run(t, "ls", "-active", "-done"); err == nil {
		t.Error("expected error for -active with -done")
	}
	if _, err := env.run(t, "ls", "extra"); err == nil {
		t.Error("expected error for extra arguments")
	}

	out := env.mustRun(t, "ls", "-v")
	if !strings.Contains(out, "id: ") || !strings.Contains(out, "1 active, 0 done") {
		t.Errorf("ls -v output = %q", out)
	}
}

func TestEditCommand(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add", "buy milk")

	out := env.mustRun(t, "edit", "1", "buy", "oat", "milk")
	if !strings.Contains(out, "Updated 1: buy oat milk") {
		t.Errorf("edit output = %q", out)
	}
	out = env.mustRun(t, "ls")
	if !strings.Contains(out, "1. [ ] buy oat milk") {
		t.Errorf("ls after edit = %q", out)
	}

	if _, err := env.run(t, "edit", "1", " "); err == nil {
		t.Error("expected error for blank edit text")
	}
}

func TestRemoveCommand(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add", "buy milk")
	env.mustRun(t, "add", "walk dog")

	out := env.mustRun(t, "rm", "1")
	if !strings.Contains(out, "Deleted 1: buy milk") {
		t.Errorf("rm output = %q", out)
	}
	out = env.mustRun(t, "ls")
	if strings.Contains(out, "buy milk") || !strings.Contains(out, "1. [ ] walk dog") {
		t.Errorf("ls after rm = %q", out)
	}
}

func TestTaskRefErrors(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add", "buy milk")

	_, err := env.run(t, "done")
	if !errors.Is(err, ErrTaskRefRequired) {
		t.Errorf("done without ref: got %v, want ErrTaskRefRequired", err)
	}
	_, err = env.run(t, "rm", "7")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("rm 7: got %v, want ErrTaskNotFound", err)
	}
	_, err = env.run(t, "done", "1", "2")
	if err == nil {
		t.Error("expected error for extra arguments")
	}

	out := env.mustRun(t, "ls")
	if !strings.Contains(out, "1. [ ] buy milk") {
		t.Errorf("failed commands changed tasks: %q", out)
	}
}

func TestCancelledCommandKeepsSavedTasks(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add", "one")
	env.mustRun(t, "add", "two")
	env.mustRun(t, "add", "three")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, []string{"add", "four"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("add with cancelled ctx: got %v, want context.Canceled", err)
	}
	if !strings.Contains(err.Error(), "loading tasks") {
		t.Errorf("error = %v, want loading tasks", err)
	}

	out := env.mustRun(t, "ls")
	for _, want := range []string{"1. [ ] one", "2. [ ] two", "3. [ ] three"} {
		if !strings.Contains(out, want) {
			t.Errorf("ls missing %q after cancelled add:\n%s", want, out)
		}
	}
	if strings.Contains(out, "four") {
		t.Errorf("cancelled add was saved:\n%s", out)
	}
}

func TestCorruptSavedTasks(t *testing.T) {
	env := newTestEnv(t)
	path := (&kv.FileStore{Dir: env.dataDir}).Path(config.DefaultKey)
	if err := os.MkdirAll(env.dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	out := env.mustRun(t, "ls")
	if !strings.Contains(out, "No tasks found.") {
		t.Errorf("ls with corrupt data = %q", out)
	}
	if !strings.Contains(env.errOut.String(), "failed to load tasks") {
		t.Errorf("expected load failure on stderr, got %q", env.errOut.String())
	}

	out, err := env.run(t, "doctor")
	if err == nil || !strings.Contains(err.Error(), "doctor checks failed") {
		t.Fatalf("doctor error = %v", err)
	}
	if !strings.Contains(out, "do not decode") {
		t.Errorf("doctor output = %q", out)
	}
}

func TestDoctorCommand(t *testing.T) {
	t.Run("empty storage passes", func(t *testing.T) {
		env := newTestEnv(t)
		out := env.mustRun(t, "doctor")
		for _, want := range []string{"Todo Doctor", "✅ Reachable", "No saved tasks", "All checks passed"} {
			if !strings.Contains(out, want) {
				t.Errorf("doctor output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("verbose shows sources and tasks", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun(t, "add", "buy milk")
		out := env.mustRun(t, "doctor", "-v")
		for _, want := range []string{"Valid: 1 tasks", "data_dir", "(environment)", "1. [ ] buy milk"} {
			if !strings.Contains(out, want) {
				t.Errorf("doctor -v output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("unreachable storage fails", func(t *testing.T) {
		env := newTestEnv(t)
		t.Setenv("TODO_STORAGE", "redis")
		t.Setenv("TODO_REDIS_ADDR", "127.0.0.1:1")
		out, err := env.run(t, "doctor")
		if err == nil {
			t.Fatal("expected doctor to fail")
		}
		if !strings.Contains(out, "❌ Error") {
			t.Errorf("doctor output = %q", out)
		}
	})
}

func TestRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	env := newTestEnv(t)
	t.Setenv("TODO_STORAGE", "redis")
	t.Setenv("TODO_REDIS_ADDR", mr.Addr())

	env.mustRun(t, "add", "buy milk")
	env.mustRun(t, "done", "1")

	out := env.mustRun(t, "ls")
	if !strings.Contains(out, "1. [x] buy milk") {
		t.Errorf("ls output = %q", out)
	}
	if len(mr.Keys()) != 1 {
		t.Errorf("expected one redis key, got %v", mr.Keys())
	}
}

func TestTailCommand(t *testing.T) {
	t.Run("no logs", func(t *testing.T) {
		env := newTestEnv(t)
		out := env.mustRun(t, "tail")
		if !strings.Contains(out, "No log files found.") {
			t.Errorf("tail output = %q", out)
		}
	})

	t.Run("last lines", func(t *testing.T) {
		env := newTestEnv(t)
		if err := os.MkdirAll(env.logDir, 0755); err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(env.logDir, "20240101-000000-1.log")
		if err := os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0644); err != nil {
			t.Fatal(err)
		}
		out := env.mustRun(t, "tail", "-n", "2")
		if !strings.Contains(out, "Tailing: "+path) {
			t.Errorf("tail output = %q", out)
		}
		if strings.Contains(out, "one") || !strings.Contains(out, "two\nthree") {
			t.Errorf("tail -n 2 output = %q", out)
		}
	})
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnv(t)
	old := Version
	Version = "1.2.3"
	t.Cleanup(func() { Version = old })

	out := env.mustRun(t, "version")
	if strings.TrimSpace(out) != "todo version 1.2.3" {
		t.Errorf("version output = %q", out)
	}
}
