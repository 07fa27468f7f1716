// Package transform defines the Transform interface and Registry for
// post-conversion fixups of the compose working set. Transforms run once
// per conversion in ascending priority order and mutate services in place.
package transform

import (
	"fmt"
	"io"
)

// Well-known priority bands. Manifest-shape converters run first, image
// family workarounds next, URL rewriting last.
const (
	PriorityConverters = 1000
	PriorityWorkaround = 1500
	PriorityURLRewrite = 2000
)

// IngressEntry is one host/path route extracted from an Ingress resource.
// It is passed through the transform chain for transforms that rewrite
// externally visible URLs.
type IngressEntry struct {
	Host    string
	Path    string
	Service string
	Port    int
}

// Sink receives human-readable audit lines describing every mutation a
// transform performs. It is injected so tests can capture output.
type Sink interface {
	// Record emits one diagnostic line.
	Record(line string)
}

// WriterSink writes audit lines to an io.Writer, one per line.
type WriterSink struct {
	W io.Writer
}

// Record writes the line followed by a newline. Write errors are dropped;
// diagnostics are best-effort.
func (s WriterSink) Record(line string) {
	_, _ = fmt.Fprintln(s.W, line)
}

// discardSink drops all lines.
type discardSink struct{}

func (discardSink) Record(string) {}

// Config holds the conversion options the transforms consult.
type Config struct {
	// VolumeRoot is the host path prefix for generated bind mounts.
	VolumeRoot string
}

// DefaultVolumeRoot is used when no volume root is configured.
const DefaultVolumeRoot = "./data"

// Context bundles the read-only inputs of one transform run: the secret
// store, conversion config, and the operator override set. It is immutable
// after construction.
type Context struct {
	secrets   SecretStore
	config    Config
	overrides map[string]struct{}
	sink      Sink
}

// NewContext builds a Context. A zero VolumeRoot falls back to
// DefaultVolumeRoot and a nil sink discards diagnostics.
func NewContext(secrets SecretStore, cfg Config, overrides []string, sink Sink) *Context {
	if cfg.VolumeRoot == "" {
		cfg.VolumeRoot = DefaultVolumeRoot
	}

	if sink == nil {
		sink = discardSink{}
	}

	ov := make(map[string]struct{}, len(overrides))
	for _, name := range overrides {
		ov[name] = struct{}{}
	}

	return &Context{
		secrets:   secrets,
		config:    cfg,
		overrides: ov,
		sink:      sink,
	}
}

// Secrets returns the secret store.
func (c *Context) Secrets() SecretStore { return c.secrets }

// VolumeRoot returns the configured host path prefix for bind mounts.
func (c *Context) VolumeRoot() string { return c.config.VolumeRoot }

// Overridden reports whether the operator pinned the named service.
// Overridden services must never be mutated or removed by transforms.
func (c *Context) Overridden(name string) bool {
	_, ok := c.overrides[name]
	return ok
}

// Record emits one diagnostic line to the sink.
func (c *Context) Record(line string) { c.sink.Record(line) }

// Recordf emits one formatted diagnostic line to the sink.
func (c *Context) Recordf(format string, args ...interface{}) {
	c.sink.Record(fmt.Sprintf(format, args...))
}
