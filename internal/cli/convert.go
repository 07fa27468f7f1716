package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/helm2compose/internal/config"
	"github.com/hupe1980/helm2compose/internal/helm/hooks"
	"github.com/hupe1980/helm2compose/internal/helm/loader"
	"github.com/hupe1980/helm2compose/internal/logging"
	"github.com/hupe1980/helm2compose/internal/output"
	"github.com/hupe1980/helm2compose/internal/pipeline"
	"github.com/hupe1980/helm2compose/internal/transform"
)

type convertOptions struct {
	// Template rendering.
	releaseName string
	namespace   string
	strict      bool
	timeout     time.Duration

	// Values merging.
	valueFiles   []string
	values       []string
	stringValues []string
	fileValues   []string

	// Project.
	projectName    string
	maxArchiveSize int64

	// Output.
	output string
	dryRun bool
}

func newConvertCommand() *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert <chart-reference>",
		Short: "Convert a Helm chart to a Docker Compose project",
		Long: `Convert a Helm chart into a docker-compose.yaml.

Supports loading charts from local directories and .tgz archives.
Remote charts (OCI registries, Helm repositories) must be pulled
locally first with helm pull.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), cmd, args[0], opts)
		},
	}

	registerPipelineFlags(cmd, opts)

	// Output flags.
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file path (default: stdout)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "preview output without writing files")

	return cmd
}

// pipelineOptions assembles pipeline options from CLI flags and the loaded
// config. The diagnostic sink goes to stderr unless quiet mode is active.
func pipelineOptions(ctx context.Context, opts *convertOptions, errOut io.Writer) pipeline.Options {
	cfg := config.FromContext(ctx)

	var sink transform.Sink
	if !cfg.Quiet {
		sink = transform.WriterSink{W: errOut}
	}

	return pipeline.Options{
		ValueFiles:     opts.valueFiles,
		Values:         opts.values,
		StringValues:   opts.stringValues,
		FileValues:     opts.fileValues,
		ReleaseName:    opts.releaseName,
		Namespace:      opts.namespace,
		Strict:         opts.strict,
		Timeout:        opts.timeout,
		ProjectName:    opts.projectName,
		VolumeRoot:     cfg.VolumeRoot,
		Overrides:      cfg.Overrides,
		MaxArchiveSize: opts.maxArchiveSize,
		Sink:           sink,
	}
}

func runConvert(ctx context.Context, cmd *cobra.Command, ref string, opts *convertOptions) error {
	logger := logging.FromContext(ctx)

	// Detect source type (informational).
	if sourceType, err := loader.Detect(ref); err == nil {
		logger.Info("detected chart source type", slog.String("type", sourceType.String()))
	}

	res, err := pipeline.Run(ctx, ref, pipelineOptions(ctx, opts, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	if res.Hooks != nil {
		hooks.PrintHookSummary(cmd.ErrOrStderr(), res.Hooks)
	}

	if opts.dryRun {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "# Dry-run mode — output preview:")
	}

	if opts.output != "" && !opts.dryRun {
		w := output.NewFileWriter(opts.output, output.WithLogger(logger))
		if err := w.Write(res.ComposeYAML); err != nil {
			return &ExitError{Code: 6, Err: fmt.Errorf("writing output: %w", err)}
		}

		logger.Info("compose file written", slog.String("path", opts.output))
	} else {
		w := output.NewStdoutWriter(cmd.OutOrStdout())
		if err := w.Write(res.ComposeYAML); err != nil {
			return &ExitError{Code: 6, Err: fmt.Errorf("writing output: %w", err)}
		}
	}

	printConvertSummary(cmd.ErrOrStderr(), res)

	return nil
}

// printConvertSummary prints a human-readable summary of the conversion.
func printConvertSummary(w io.Writer, res *pipeline.Result) {
	_, _ = fmt.Fprintf(w, "\n--- Conversion Summary ---\n")
	_, _ = fmt.Fprintf(w, "Services: %d\n", len(res.Project.Services))

	if res.Hooks != nil && res.Hooks.HookCount > 0 {
		_, _ = fmt.Fprintf(w, "Hooks dropped: %d\n", res.Hooks.HookCount)
	}

	if len(res.Skipped) > 0 {
		_, _ = fmt.Fprintf(w, "Skipped resources (no compose equivalent):\n")
		for _, s := range res.Skipped {
			_, _ = fmt.Fprintf(w, "  - %s\n", s)
		}
	}

	if len(res.Ingress) > 0 {
		_, _ = fmt.Fprintf(w, "Ingress routes (map manually, e.g. via a reverse proxy):\n")
		for _, ing := range res.Ingress {
			_, _ = fmt.Fprintf(w, "  - %s%s -> %s:%d\n", ing.Host, ing.Path, ing.Service, ing.Port)
		}
	}

	for _, warn := range res.Warnings {
		_, _ = fmt.Fprintf(w, "Warning: %s\n", warn)
	}

	_, _ = fmt.Fprintf(w, "--------------------------\n")
}
