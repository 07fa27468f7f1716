package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/helm2compose/internal/output"
	"github.com/hupe1980/helm2compose/internal/pipeline"
	"github.com/hupe1980/helm2compose/internal/watch"
)

type watchOptions struct {
	convertOptions

	// Watch-specific options.
	debounce time.Duration
	up       bool
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <chart-reference>",
		Short: "Watch a chart for changes and auto-convert",
		Long: `Watch monitors a Helm chart directory for file changes and
automatically re-runs the conversion when source files are modified.

File changes are debounced to avoid rapid re-runs. Each regeneration
reports the service count and any skipped resources.

Use --up to restart the compose stack via docker compose up -d after
each successful regeneration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, args[0], opts)
		},
	}

	registerPipelineFlags(cmd, &opts.convertOptions)

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file path (required)")
	f.DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "debounce interval for file changes")
	f.BoolVar(&opts.up, "up", false, "run docker compose up -d after each generation")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, ref string, opts *watchOptions) error {
	if opts.output == "" {
		return &ExitError{Code: 2, Err: fmt.Errorf("--output (-o) is required for watch mode")}
	}

	// Build the run function that executes the full pipeline.
	runFn := func(fnCtx context.Context) (*watch.RunResult, error) {
		res, err := pipeline.Run(fnCtx, ref, pipelineOptions(ctx, &opts.convertOptions, cmd.ErrOrStderr()))
		if err != nil {
			return nil, err
		}

		w := output.NewFileWriter(opts.output)
		if writeErr := w.Write(res.ComposeYAML); writeErr != nil {
			return nil, fmt.Errorf("writing output: %w", writeErr)
		}

		return &watch.RunResult{
			Services:   len(res.Project.Services),
			Skipped:    len(res.Skipped),
			OutputPath: opts.output,
		}, nil
	}

	watchOpts := watch.Options{
		ChartDir:   ref,
		ExtraFiles: opts.valueFiles,
		Debounce:   opts.debounce,
		Up:         opts.up,
		Out:        cmd.ErrOrStderr(),
	}

	return watch.Run(ctx, watchOpts, runFn)
}
