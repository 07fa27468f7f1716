// Package watch monitors a chart directory and re-runs the compose
// conversion whenever source files change. File events are debounced so a
// burst of editor writes triggers a single regeneration.
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc is called each time the watcher triggers a regeneration.
type RunFunc func(ctx context.Context) (*RunResult, error)

// RunResult holds the output of a single conversion run so the watcher can
// report status and optionally bring the stack up.
type RunResult struct {
	// Services is the number of compose services generated.
	Services int

	// Skipped is the number of resources without a compose equivalent.
	Skipped int

	// OutputPath is the compose file that was written.
	OutputPath string
}

// Options configures the watch behaviour.
type Options struct {
	// ChartDir is the root chart directory to watch recursively.
	ChartDir string

	// ExtraFiles are additional files to watch (e.g. values overrides).
	ExtraFiles []string

	// Debounce is the quiet period before triggering a rebuild.
	Debounce time.Duration

	// Up restarts the compose stack via docker compose up -d after each
	// successful regeneration.
	Up bool

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 500 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run starts the file watcher and blocks until the context is cancelled
// or a SIGINT/SIGTERM signal is received.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Walk chart directory and add all subdirectories.
	if err := addRecursive(watcher, opts.ChartDir); err != nil {
		return fmt.Errorf("watching chart directory: %w", err)
	}

	// Watch extra files (e.g. values overrides).
	for _, f := range opts.ExtraFiles {
		abs, absErr := filepath.Abs(f)
		if absErr != nil {
			return fmt.Errorf("resolving extra file %q: %w", f, absErr)
		}

		if err := watcher.Add(abs); err != nil {
			return fmt.Errorf("watching file %q: %w", abs, err)
		}
	}

	// Trap SIGINT / SIGTERM for graceful shutdown.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %s (debounce=%s, up=%t)\n",
		opts.ChartDir, opts.Debounce, opts.Up)

	// Initial generation.
	doRun(sigCtx, opts, runFn, "(initial)")

	// Set up debouncer.
	debouncer := NewDebouncer(opts.Debounce, func(path string) {
		doRun(sigCtx, opts, runFn, path)
	})
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "\nshutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event) {
				continue
			}

			// If a new directory was created, watch it too.
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = addRecursive(watcher, event.Name)
				}
			}

			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// doRun executes a single conversion run and prints the status line.
func doRun(ctx context.Context, opts Options, runFn RunFunc, trigger string) {
	now := time.Now().Format("15:04:05")

	result, err := runFn(ctx)
	if err != nil {
		fmt.Fprintf(opts.Out, "[%s] %s → ERROR: %v\n", now, trigger, err)
		return
	}

	fmt.Fprintf(opts.Out, "[%s] %s → OK (%d services, %d skipped)\n",
		now, trigger, result.Services, result.Skipped)

	if opts.Up && result.OutputPath != "" {
		composeUp(ctx, opts, result.OutputPath)
	}
}

// composeUp runs docker compose up -d on the generated file.
func composeUp(ctx context.Context, opts Options, outputPath string) {
	dockerPath, err := exec.LookPath("docker")
	if err != nil {
		fmt.Fprintf(opts.Out, "  up: docker not found on PATH\n")
		return
	}

	upCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	cmd := exec.CommandContext(upCtx, dockerPath, "compose", "-f", outputPath, "up", "-d", "--remove-orphans") //nolint:gosec
	cmd.Stdout = opts.Out
	cmd.Stderr = opts.Out

	if upErr := cmd.Run(); upErr != nil {
		fmt.Fprintf(opts.Out, "  up: FAILED: %v\n", upErr)
	} else {
		fmt.Fprintf(opts.Out, "  up: OK\n")
	}
}

// addRecursive walks root and adds all directories to the watcher.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			// Skip hidden directories (e.g., .git).
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}

			return watcher.Add(path)
		}

		return nil
	})
}

// isRelevant filters out events on non-chart files.
func isRelevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	// Only care about write, create, remove, rename.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	// Ignore editor temporary files and hidden files.
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	return true
}
