// Package helm2compose provides a public Go API for converting Helm charts
// into Docker Compose YAML.
//
// This package exposes the conversion pipeline as a library, allowing
// programmatic use without the CLI.
//
// Basic usage:
//
//	result, err := helm2compose.Convert(ctx, "path/to/chart")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(string(result.YAML))
//
// With options:
//
//	result, err := helm2compose.Convert(ctx, "path/to/chart",
//	    helm2compose.WithReleaseName("my-release"),
//	    helm2compose.WithVolumeRoot("/srv/state"),
//	    helm2compose.WithOverrides("cache-redis-master"),
//	)
package helm2compose

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/helm2compose/internal/compose"
	"github.com/hupe1980/helm2compose/internal/pipeline"
	"github.com/hupe1980/helm2compose/internal/transform"
)

// Option configures the chart-to-compose conversion pipeline.
// Use the With* functions to create Options.
type Option func(*pipeline.Options)

// --- Template rendering ---

// WithReleaseName sets the Helm release name (default: "release").
func WithReleaseName(name string) Option {
	return func(o *pipeline.Options) { o.ReleaseName = name }
}

// WithNamespace sets the Kubernetes namespace (default: "default").
func WithNamespace(ns string) Option {
	return func(o *pipeline.Options) { o.Namespace = ns }
}

// WithStrict enables strict template rendering (fail on missing values).
func WithStrict() Option {
	return func(o *pipeline.Options) { o.Strict = true }
}

// WithTimeout sets the template rendering timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *pipeline.Options) { o.Timeout = d }
}

// --- Values merging ---

// WithValueFiles sets paths to additional values files.
func WithValueFiles(files ...string) Option {
	return func(o *pipeline.Options) { o.ValueFiles = files }
}

// WithValues sets individual value overrides (key=value).
func WithValues(vals ...string) Option {
	return func(o *pipeline.Options) { o.Values = vals }
}

// WithStringValues sets individual string value overrides (key=value).
func WithStringValues(vals ...string) Option {
	return func(o *pipeline.Options) { o.StringValues = vals }
}

// WithFileValues sets individual file value overrides (key=filepath).
func WithFileValues(vals ...string) Option {
	return func(o *pipeline.Options) { o.FileValues = vals }
}

// --- Compose output ---

// WithProjectName overrides the compose project name (default: chart name).
func WithProjectName(name string) Option {
	return func(o *pipeline.Options) { o.ProjectName = name }
}

// WithVolumeRoot sets the host directory prefix for generated bind mounts.
func WithVolumeRoot(root string) Option {
	return func(o *pipeline.Options) { o.VolumeRoot = root }
}

// WithOverrides marks service names that transforms must never touch.
func WithOverrides(names ...string) Option {
	return func(o *pipeline.Options) { o.Overrides = names }
}

// WithSink sets a sink for transform diagnostic lines.
func WithSink(sink transform.Sink) Option {
	return func(o *pipeline.Options) { o.Sink = sink }
}

// WithMaxArchiveSize caps the chart archive size in bytes.
func WithMaxArchiveSize(size int64) Option {
	return func(o *pipeline.Options) { o.MaxArchiveSize = size }
}

// Result holds the output of a successful conversion.
type Result struct {
	// YAML is the rendered compose YAML bytes.
	YAML []byte

	// Project is the structured compose project, suitable for further
	// manipulation.
	Project *compose.Project

	// ChartName is the name of the source chart.
	ChartName string

	// ChartVersion is the version of the source chart.
	ChartVersion string

	// HooksDropped is the number of Helm hook resources that were dropped.
	HooksDropped int

	// Skipped lists resources without a compose equivalent.
	Skipped []string

	// Warnings are conversion notes surfaced to the caller.
	Warnings []string
}

// Convert converts a Helm chart reference into a Docker Compose project.
//
// The chartRef can be a local directory or a .tgz archive path. Remote
// charts must be pulled locally first with helm pull.
//
// Pass no options to use all defaults:
//
//	result, err := helm2compose.Convert(ctx, "path/to/chart")
func Convert(ctx context.Context, chartRef string, opts ...Option) (*Result, error) {
	if chartRef == "" {
		return nil, errors.New("chart reference must not be empty")
	}

	var popts pipeline.Options
	for _, opt := range opts {
		opt(&popts)
	}

	res, err := pipeline.Run(ctx, chartRef, popts)
	if err != nil {
		return nil, err
	}

	return &Result{
		YAML:         res.ComposeYAML,
		Project:      res.Project,
		ChartName:    res.Meta.Name,
		ChartVersion: res.Meta.Version,
		HooksDropped: res.Hooks.HookCount,
		Skipped:      res.Skipped,
		Warnings:     res.Warnings,
	}, nil
}
