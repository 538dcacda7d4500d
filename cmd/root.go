// Package cmd implements the CLI command structure for todo.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todo-go/internal/config"
	"github.com/nibzard/todo-go/internal/kv"
	"github.com/nibzard/todo-go/internal/logging"
	"github.com/nibzard/todo-go/internal/store"
	"github.com/nibzard/todo-go/internal/todo"
	"github.com/nibzard/todo-go/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

const (
	// How long a command waits for pending writes on exit.
	closeTimeout = 5 * time.Second

	previewWidth = 60
)

// Output streams, swapped by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run executes the todo CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// No command launches the screen
	subcommand := "tui"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "add":
		return addCommand(ctx, cfg, remainingArgs)
	case "ls", "list":
		return lsCommand(ctx, cfg, remainingArgs)
	case "done":
		return completeCommand(ctx, cfg, remainingArgs, true)
	case "undone":
		return completeCommand(ctx, cfg, remainingArgs, false)
	case "edit":
		return editCommand(ctx, cfg, remainingArgs)
	case "rm":
		return rmCommand(ctx, cfg, remainingArgs)
	case "doctor":
		return doctorCommand(ctx, cws, remainingArgs)
	case "tail":
		return tailCommand(ctx, cfg, remainingArgs)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// tuiCommand launches the to-do screen.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("todo tui", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inline := fs.Bool("inline", false, "Render inline instead of on the alternate screen")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if !ui.IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY (use 'todo ls' to list tasks)")
	}

	// The screen owns stdout, so this run logs to its own file
	runLog, err := logging.NewRunLogger(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("creating run log: %w", err)
	}
	defer runLog.Close()
	logger := runLog.Logger(logOptions(cfg))
	logger.Info("starting", "version", Version, "storage", cfg.Storage, "key", cfg.Key)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "err", err)
		return err
	}

	runErr := ui.RunTUI(ctx, st,
		ui.WithTitle(cfg.Title),
		ui.WithAltScreen(!*inline),
	)
	closeErr := closeStore(st)
	if closeErr != nil {
		logger.Error("failed to save tasks", "err", closeErr)
	}
	var loadErr error
	if err := st.LoadErr(); err != nil {
		loadErr = fmt.Errorf("loading tasks, changes were not saved: %w", err)
	}
	stats := st.WriteStats()
	logger.Info("finished", "written", stats.Written, "skipped", stats.Skipped, "failed", stats.Failed)
	return errors.Join(runErr, loadErr, closeErr)
}

// addCommand adds a task from the remaining arguments.
func addCommand(ctx context.Context, cfg *config.Config, args []string) error {
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("task text required")
	}
	return withStore(ctx, cfg, func(st *store.Store) error {
		task, _ := st.Add(text)
		fmt.Fprintf(stdout, "Added %d: %s\n", st.Len(), todo.Preview(task.Text, previewWidth))
		return nil
	})
}

// lsCommand lists tasks in collection order.
func lsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("todo ls", flag.ContinueOnError)
	fs.SetOutput(stderr)
	all := fs.Bool("all", false, "Show all tasks (default)")
	active := fs.Bool("active", false, "Show only active tasks")
	done := fs.Bool("done", false, "Show only completed tasks")
	verbose := fs.Bool("v", false, "Show more details")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if *all {
		*active, *done = false, false
	}
	if *active && *done {
		return fmt.Errorf("-active and -done are mutually exclusive")
	}

	return withStore(ctx, cfg, func(st *store.Store) error {
		tasks := st.Tasks()
		shown := 0
		for i, t := range tasks {
			if (*active && t.IsCompleted) || (*done && !t.IsCompleted) {
				continue
			}
			printTask(i+1, t, *verbose)
			shown++
		}
		if shown == 0 {
			fmt.Fprintln(stdout, "No tasks found.")
			return nil
		}
		if *verbose {
			activeCount, doneCount := todo.NewCollection(tasks...).Counts()
			fmt.Fprintf(stdout, "\n%d active, %d done\n", activeCount, doneCount)
		}
		return nil
	})
}

// completeCommand marks a task completed or active again.
func completeCommand(ctx context.Context, cfg *config.Config, args []string, completed bool) error {
	ref, rest, err := splitTaskRef(args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}
	return withStore(ctx, cfg, func(st *store.Store) error {
		task, n, err := ResolveTaskRef(st.Tasks(), ref)
		if err != nil {
			return err
		}
		st.SetCompleted(task.ID, completed)
		verb := "Completed"
		if !completed {
			verb = "Reopened"
		}
		fmt.Fprintf(stdout, "%s %d: %s\n", verb, n, todo.Preview(task.Text, previewWidth))
		return nil
	})
}

// editCommand replaces the text of a task.
func editCommand(ctx context.Context, cfg *config.Config, args []string) error {
	ref, rest, err := splitTaskRef(args)
	if err != nil {
		return err
	}
	text := strings.Join(rest, " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("task text required")
	}
	return withStore(ctx, cfg, func(st *store.Store) error {
		task, n, err := ResolveTaskRef(st.Tasks(), ref)
		if err != nil {
			return err
		}
		st.SetText(task.ID, text)
		fmt.Fprintf(stdout, "Updated %d: %s\n", n, todo.Preview(text, previewWidth))
		return nil
	})
}

// rmCommand deletes a task.
func rmCommand(ctx context.Context, cfg *config.Config, args []string) error {
	ref, rest, err := splitTaskRef(args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}
	return withStore(ctx, cfg, func(st *store.Store) error {
		task, n, err := ResolveTaskRef(st.Tasks(), ref)
		if err != nil {
			return err
		}
		st.Delete(task.ID)
		fmt.Fprintf(stdout, "Deleted %d: %s\n", n, todo.Preview(task.Text, previewWidth))
		return nil
	})
}

// doctorCommand checks config, storage reachability and the saved collection.
func doctorCommand(ctx context.Context, cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("todo doctor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	cfg := cws.Config

	fmt.Fprintln(stdout, "Todo Doctor")
	fmt.Fprintln(stdout, "===========")
	fmt.Fprintln(stdout)

	allOK := true

	// Config
	fmt.Fprintln(stdout, "Config:")
	if file := cws.GetConfigFile(); file != "" {
		fmt.Fprintf(stdout, "  File: %s\n", file)
	} else {
		fmt.Fprintln(stdout, "  File: (none, using defaults)")
	}
	fmt.Fprintf(stdout, "  ✅ Storage: %s\n", cfg.Storage)
	fmt.Fprintf(stdout, "  ✅ Key: %s\n", cfg.Key)
	if *verbose {
		for _, field := range cws.SortedFields() {
			fmt.Fprintf(stdout, "     %s = %q (%s)\n", field, cws.Value(field), cws.Sources[field])
		}
	}
	fmt.Fprintln(stdout)

	// Storage
	fmt.Fprintf(stdout, "Storage: %s\n", describeStorage(cws))
	backend, err := kv.Open(ctx, cfg.KVOptions())
	if err != nil {
		fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
		allOK = false
	} else {
		fmt.Fprintln(stdout, "  ✅ Reachable")
		if !checkSavedTasks(ctx, backend, cfg.Key, *verbose) {
			allOK = false
		}
		if err := backend.Close(); err != nil {
			fmt.Fprintf(stdout, "  ⚠️  Close: %v\n", err)
		}
	}
	fmt.Fprintln(stdout)

	// Log directory
	fmt.Fprintf(stdout, "Log directory: %s\n", cfg.LogDir)
	if info, err := os.Stat(cfg.LogDir); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(stdout, "  ⚠️  Not found (will be created on first tui run)")
		} else {
			fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
			allOK = false
		}
	} else if !info.IsDir() {
		fmt.Fprintln(stdout, "  ❌ Error: path is not a directory")
		allOK = false
	} else {
		fmt.Fprintln(stdout, "  ✅ OK")
	}
	fmt.Fprintln(stdout)

	// Overall status
	if allOK {
		fmt.Fprintln(stdout, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(stdout, "⚠️  Some checks failed. Saved tasks may not load.")
	return fmt.Errorf("doctor checks failed")
}

// checkSavedTasks reports whether the value under key decodes.
func checkSavedTasks(ctx context.Context, backend kv.Store, key string, verbose bool) bool {
	value, ok, err := backend.Get(ctx, key)
	if err != nil {
		fmt.Fprintf(stdout, "  ❌ Read %s: %v\n", key, err)
		return false
	}
	if !ok {
		fmt.Fprintf(stdout, "  ⚠️  No saved tasks under %q (starts empty)\n", key)
		return true
	}
	tasks, err := todo.Decode([]byte(value))
	if err != nil {
		fmt.Fprintf(stdout, "  ❌ Saved tasks under %q do not decode:\n", key)
		fmt.Fprintf(stdout, "     - %v\n", err)
		return false
	}
	active, done := tasks.Counts()
	fmt.Fprintf(stdout, "  ✅ Valid: %d tasks (%d active, %d done)\n", tasks.Len(), active, done)
	if verbose {
		for i, t := range tasks.Tasks() {
			printTask(i+1, t, false)
		}
	}
	return true
}

func describeStorage(cws *config.ConfigWithSources) string {
	cfg := cws.Config
	switch cfg.Storage {
	case kv.BackendFile:
		return fmt.Sprintf("%s (%s)", cfg.Storage, cfg.DataDir)
	case kv.BackendRedis:
		return fmt.Sprintf("%s (%s db %d)", cfg.Storage, cfg.Redis.Addr, cfg.Redis.DB)
	case kv.BackendPostgres, kv.BackendMySQL:
		return fmt.Sprintf("%s (dsn %s)", cfg.Storage, cws.Value("dsn"))
	}
	return cfg.Storage
}

// tailCommand tails the latest log file.
func tailCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("todo tail", flag.ContinueOnError)
	fs.SetOutput(stderr)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	logPath, err := logging.FindLatestLog(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(stdout, "No log files found.")
		return nil
	}

	fmt.Fprintf(stdout, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(stdout, "(Ctrl+C to stop)")
	}
	fmt.Fprintln(stdout)

	return logging.TailLog(ctx, stdout, logPath, *n, *follow)
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "todo version %s\n", Version)
	return nil
}

// openStore opens the configured backend and wraps it in a store.
func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*store.Store, error) {
	backend, err := kv.Open(ctx, cfg.KVOptions())
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return store.New(ctx, backend, store.WithKey(cfg.Key), store.WithLogger(logger)), nil
}

// withStore loads the store, runs fn and saves before returning. fn is
// not run when the saved tasks could not be read.
func withStore(ctx context.Context, cfg *config.Config, fn func(*store.Store) error) error {
	logger := logging.New(stderr, logOptions(cfg))
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	st.Load(ctx)
	if err := st.LoadErr(); err != nil {
		return errors.Join(fmt.Errorf("loading tasks: %w", err), closeStore(st))
	}

	fnErr := fn(st)
	closeErr := closeStore(st)
	if closeErr == nil {
		if werr := st.LastWriteError(); werr != nil {
			closeErr = fmt.Errorf("saving tasks: %w", werr)
		}
	}
	return errors.Join(fnErr, closeErr)
}

// closeStore flushes pending writes, bounded by closeTimeout.
func closeStore(st *store.Store) error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := st.Close(ctx); err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}
	return nil
}

func logOptions(cfg *config.Config) logging.Options {
	return logging.OptionsFromConfig(cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)
}

// printTask prints a single task with its list number.
func printTask(n int, t todo.Task, verbose bool) {
	check := "[ ]"
	if t.IsCompleted {
		check = "[x]"
	}
	fmt.Fprintf(stdout, "%3d. %s %s\n", n, check, todo.Preview(t.Text, previewWidth))
	if verbose {
		fmt.Fprintf(stdout, "       id: %s\n", t.ID)
		fmt.Fprintf(stdout, "       created: %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Todo - A single-screen to-do list")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  todo [options] [command]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui                 Launch the to-do screen (default command)")
	fmt.Fprintln(w, "  add <text>          Add a task")
	fmt.Fprintln(w, "  ls                  List tasks")
	fmt.Fprintln(w, "  done <ref>          Mark a task completed")
	fmt.Fprintln(w, "  undone <ref>        Mark a task active again")
	fmt.Fprintln(w, "  edit <ref> <text>   Replace the text of a task")
	fmt.Fprintln(w, "  rm <ref>            Delete a task")
	fmt.Fprintln(w, "  doctor              Check config, storage and saved tasks")
	fmt.Fprintln(w, "  tail                Tail the latest log file")
	fmt.Fprintln(w, "  version             Show version information")
	fmt.Fprintln(w, "  help                Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "A <ref> is a list number from 'todo ls' or a task id prefix.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tui Options (use with 'tui' command):")
	fmt.Fprintln(w, "  -inline")
	fmt.Fprintln(w, "        Render inline instead of on the alternate screen")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options (use with 'ls' command):")
	fmt.Fprintln(w, "  -all | -active | -done")
	fmt.Fprintln(w, "        Filter by completion (default all)")
	fmt.Fprintln(w, "  -v    Show ids and creation times")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tail Options (use with 'tail' command):")
	fmt.Fprintln(w, "  -f, --follow")
	fmt.Fprintln(w, "        Follow the log (like tail -f)")
	fmt.Fprintln(w, "  -n int")
	fmt.Fprintln(w, "        Number of lines to show (0 = all)")
}
