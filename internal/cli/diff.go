package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/helm2compose/internal/config"
	"github.com/hupe1980/helm2compose/internal/diff"
	"github.com/hupe1980/helm2compose/internal/pipeline"
)

type diffOptions struct {
	convertOptions

	// Existing compose file to diff against.
	existing string

	// Return exit code 3 when differences are found.
	exitCode bool
}

func newDiffCommand() *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff <chart-reference>",
		Short: "Compare generated compose output against an existing file",
		Long: `Diff converts the chart and compares the generated compose file
against an existing one on disk, printing a unified diff.

Use this before overwriting a compose file you have hand-edited, to see
what a regeneration would change.

Exit codes:
  0  No differences (or --exit-code not set)
  1  Error
  2  Invalid arguments
  3  Differences found (with --exit-code)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), cmd, args[0], opts)
		},
	}

	// Diff-specific flags.
	f := cmd.Flags()
	f.StringVar(&opts.existing, "existing", "", "path to existing compose YAML file to diff against")
	f.BoolVar(&opts.exitCode, "exit-code", false, "exit with code 3 when differences are found")

	// Shared pipeline flags (rendering, values, project).
	registerPipelineFlags(cmd, &opts.convertOptions)

	return cmd
}

func runDiff(ctx context.Context, cmd *cobra.Command, ref string, opts *diffOptions) error {
	if opts.existing == "" {
		return &ExitError{Code: 2, Err: fmt.Errorf("--existing flag is required: specify the path to the existing compose file")}
	}

	existingYAML, err := os.ReadFile(opts.existing)
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("reading existing compose file: %w", err)}
	}

	res, err := runPipelineForDiff(ctx, cmd, ref, opts)
	if err != nil {
		return err
	}

	diffOpts := diff.DefaultOptions()
	diffOpts.OldLabel = opts.existing
	diffOpts.NewLabel = "generated"

	result, err := diff.Compute(string(existingYAML), string(res), diffOpts)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	cfg := config.FromContext(ctx)
	diff.Write(cmd.OutOrStdout(), result, !cfg.NoColor)

	if opts.exitCode && result.HasDifferences {
		return &ExitError{Code: 3, Err: fmt.Errorf("differences found against %s", opts.existing)}
	}

	return nil
}

// runPipelineForDiff runs the conversion and returns the generated YAML.
// Transform diagnostics are suppressed so the diff output stays clean.
func runPipelineForDiff(ctx context.Context, cmd *cobra.Command, ref string, opts *diffOptions) ([]byte, error) {
	popts := pipelineOptions(ctx, &opts.convertOptions, cmd.ErrOrStderr())
	popts.Sink = nil

	res, err := pipeline.Run(ctx, ref, popts)
	if err != nil {
		return nil, err
	}

	return res.ComposeYAML, nil
}
