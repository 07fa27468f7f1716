// Package pipeline runs the full chart-to-compose conversion: load, render,
// filter hooks, parse, convert, transform, serialize. It is the shared core
// behind the CLI commands and the public API.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hupe1980/helm2compose/internal/compose"
	"github.com/hupe1980/helm2compose/internal/convert"
	"github.com/hupe1980/helm2compose/internal/helm/chartmeta"
	"github.com/hupe1980/helm2compose/internal/helm/deps"
	"github.com/hupe1980/helm2compose/internal/helm/hooks"
	"github.com/hupe1980/helm2compose/internal/helm/loader"
	"github.com/hupe1980/helm2compose/internal/helm/renderer"
	"github.com/hupe1980/helm2compose/internal/k8s/parser"
	"github.com/hupe1980/helm2compose/internal/logging"
	"github.com/hupe1980/helm2compose/internal/transform"
	"github.com/hupe1980/helm2compose/internal/transform/bitnami"
	"github.com/hupe1980/helm2compose/internal/transform/envsecrets"
	"github.com/hupe1980/helm2compose/internal/transform/urls"
	"github.com/hupe1980/helm2compose/internal/version"
)

// DefaultTimeout bounds template rendering.
const DefaultTimeout = 60 * time.Second

// Options configures a pipeline run.
type Options struct {
	// ValueFiles, Values, StringValues, FileValues follow Helm's value
	// merging conventions.
	ValueFiles   []string
	Values       []string
	StringValues []string
	FileValues   []string

	// ReleaseName and Namespace feed template rendering.
	ReleaseName string
	Namespace   string

	// Strict makes rendering fail on missing values.
	Strict bool

	// Timeout bounds template rendering. Zero means DefaultTimeout.
	Timeout time.Duration

	// ProjectName overrides the compose project name (default: chart name).
	ProjectName string

	// VolumeRoot is the host directory prefix for generated bind mounts.
	VolumeRoot string

	// Overrides lists service names transforms must never touch.
	Overrides []string

	// MaxArchiveSize caps chart archive size in bytes.
	MaxArchiveSize int64

	// Sink receives transform diagnostic lines. Nil discards them.
	Sink transform.Sink
}

// Result holds the outputs of a pipeline run.
type Result struct {
	// ComposeYAML is the serialized compose file.
	ComposeYAML []byte

	// Project is the in-memory compose project.
	Project *compose.Project

	// Meta is the loaded chart's metadata.
	Meta *chartmeta.ChartMeta

	// Hooks describes the dropped Helm hook resources.
	Hooks *hooks.FilterResult

	// Deps is the subchart dependency analysis, nil when the chart
	// declares no dependencies.
	Deps *deps.Result

	// Ingress are the collected ingress routes (informational; compose
	// has no ingress equivalent).
	Ingress []transform.IngressEntry

	// Skipped lists resources without a compose equivalent.
	Skipped []string

	// Warnings are conversion notes surfaced to the user.
	Warnings []string
}

// defaultRegistry assembles the built-in transform chain: env-secret
// resolution, bitnami image repairs, internal URL flattening.
func defaultRegistry() *transform.Registry {
	r := transform.NewRegistry()
	r.Register(envsecrets.New(), bitnami.New(), urls.New())

	return r
}

// Run executes the conversion pipeline for the given chart reference.
func Run(ctx context.Context, ref string, opts Options) (*Result, error) {
	logger := logging.FromContext(ctx)

	// 1. Load the chart.
	logger.Info("loading chart", slog.String("ref", ref))

	ch, err := loader.NewMultiLoader().Load(ctx, ref, loader.LoadOptions{
		MaxArchiveSize: opts.MaxArchiveSize,
	})
	if err != nil {
		return nil, fmt.Errorf("loading chart: %w", err)
	}

	// 2. Extract chart metadata.
	meta := chartmeta.FromChart(ch)
	logger.Info("chart loaded",
		slog.String("name", meta.Name),
		slog.String("version", meta.Version),
		slog.String("appVersion", meta.AppVersion),
	)

	if meta.IsLibrary() {
		return nil, fmt.Errorf("chart %q is a library chart and cannot be converted", meta.Name)
	}

	// 3. Analyze dependencies. Missing subcharts (e.g. a bitnami redis that
	// was never vendored) mean the rendered output is incomplete.
	var depResult *deps.Result

	if meta.HasDependencies() {
		depResult = deps.Analyze(ch, logger)
		if !depResult.AllResolved {
			missing := deps.MissingDependencies(depResult)
			logger.Warn("some dependencies are not vendored", slog.Any("missing", missing))
		}
	}

	// 4. Merge values.
	mergedVals, err := renderer.MergeValues(ch, renderer.ValuesOptions{
		ValueFiles:   opts.ValueFiles,
		Values:       opts.Values,
		StringValues: opts.StringValues,
		FileValues:   opts.FileValues,
	})
	if err != nil {
		return nil, fmt.Errorf("merging values: %w", err)
	}

	// 5. Render templates.
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	renderCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rendered, err := renderer.New(renderer.RenderOptions{
		ReleaseName: opts.ReleaseName,
		Namespace:   opts.Namespace,
		Strict:      opts.Strict,
	}).Render(renderCtx, ch, mergedVals)
	if err != nil {
		return nil, fmt.Errorf("rendering templates: %w", err)
	}

	// 6. Drop Helm hooks.
	hookResult, err := hooks.Filter(rendered, logger)
	if err != nil {
		return nil, fmt.Errorf("filtering hooks: %w", err)
	}

	// 7. Parse into K8s resources.
	resources, err := parser.NewParser().Parse(ctx, hooks.CombineResources(hookResult))
	if err != nil {
		return nil, fmt.Errorf("parsing resources: %w", err)
	}

	if len(resources) == 0 {
		return nil, fmt.Errorf("no resources found in rendered output")
	}

	logger.Info("parsed resources", slog.Int("count", len(resources)))

	// 8. Convert resources into the compose working set.
	conv, err := convert.NewConverter(convert.Config{VolumeRoot: opts.VolumeRoot}).Convert(ctx, resources)
	if err != nil {
		return nil, fmt.Errorf("converting resources: %w", err)
	}

	for _, w := range conv.Warnings {
		logger.Warn(w)
	}

	// 9. Run the transform chain.
	tctx := transform.NewContext(conv.Secrets, transform.Config{VolumeRoot: opts.VolumeRoot}, opts.Overrides, opts.Sink)

	if err := defaultRegistry().Apply(conv.Services, conv.Ingress, tctx); err != nil {
		return nil, fmt.Errorf("applying transforms: %w", err)
	}

	// 10. Assemble and serialize the compose project.
	projectName := opts.ProjectName
	if projectName == "" {
		projectName = meta.Name
	}

	project := compose.NewProject(projectName)
	project.Services = conv.Services

	composeYAML, err := compose.Marshal(project, compose.MarshalOptions{
		Header: []string{
			fmt.Sprintf("Generated by helm2compose %s from chart %s %s", version.GetInfo().Version, meta.Name, meta.Version),
			"",
			"Review before use: converted manifests approximate the chart's",
			"Kubernetes semantics and may need manual adjustment.",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("serializing compose file: %w", err)
	}

	logger.Info("conversion complete",
		slog.Int("services", len(project.Services)),
		slog.Int("skipped", len(conv.Skipped)),
	)

	return &Result{
		ComposeYAML: composeYAML,
		Project:     project,
		Meta:        meta,
		Hooks:       hookResult,
		Deps:        depResult,
		Ingress:     conv.Ingress,
		Skipped:     conv.Skipped,
		Warnings:    conv.Warnings,
	}, nil
}
