// Package convert turns parsed Kubernetes resources into the Docker Compose
// working set consumed by the transform chain.
package convert

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/helm2compose/internal/compose"
	"github.com/hupe1980/helm2compose/internal/k8s"
	"github.com/hupe1980/helm2compose/internal/transform"
)

// Config holds the configuration for conversion.
type Config struct {
	// VolumeRoot is the host directory prefix for generated bind mounts
	// (default "./data").
	VolumeRoot string
}

// Result is the compose working set produced from a manifest set.
type Result struct {
	// Services are the generated compose services keyed by service name.
	Services map[string]*compose.Service

	// Secrets are the collected Secret resources, used by transforms to
	// resolve credentials.
	Secrets transform.SecretStore

	// Ingress are the collected ingress routes.
	Ingress []transform.IngressEntry

	// Skipped lists qualified names of resources no compose equivalent
	// exists for.
	Skipped []string

	// Warnings are human-readable conversion notes (e.g. :latest images).
	Warnings []string
}

// Converter converts parsed resources into a compose Result.
type Converter struct {
	config Config
}

// NewConverter creates a new Converter.
func NewConverter(config Config) *Converter {
	if config.VolumeRoot == "" {
		config.VolumeRoot = transform.DefaultVolumeRoot
	}

	return &Converter{config: config}
}

// Convert runs the two-pass conversion: first collect configuration resources
// (Secrets, ConfigMaps, Services, Ingresses), then convert workloads so env
// and port lookups can resolve against the collected state.
func (c *Converter) Convert(_ context.Context, resources []*k8s.Resource) (*Result, error) {
	result := &Result{
		Services: make(map[string]*compose.Service),
		Secrets:  make(transform.SecretStore),
	}

	state := newCollectState()

	for _, r := range resources {
		switch {
		case k8s.IsConfig(r.GVK):
			collectConfig(r, result, state)
		case k8s.IsService(r.GVK):
			state.services = append(state.services, collectService(r))
		case k8s.IsIngress(r.GVK):
			result.Ingress = append(result.Ingress, collectIngress(r)...)
		}
	}

	for _, r := range resources {
		switch {
		case k8s.IsWorkload(r.GVK):
			if err := c.convertWorkload(r, result, state); err != nil {
				return nil, fmt.Errorf("converting %s: %w", r.QualifiedName(), err)
			}
		case k8s.IsConfig(r.GVK), k8s.IsService(r.GVK), k8s.IsIngress(r.GVK):
			// handled in the first pass
		default:
			result.Skipped = append(result.Skipped, r.QualifiedName())
		}
	}

	sort.Strings(result.Skipped)

	return result, nil
}

// warnImage records a warning for images compose would re-pull on restart.
func (c *Converter) warnImage(result *Result, svcName, image string) {
	if k8s.HasLatestTag(image) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("service %s uses mutable image tag %q", svcName, image))
	}
}
