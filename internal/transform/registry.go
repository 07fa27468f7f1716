package transform

import (
	"fmt"
	"sort"

	"github.com/hupe1980/helm2compose/internal/compose"
)

// Transform is one fixup stage of the conversion pipeline. Implementations
// mutate the service set in place and may delete entries from it.
type Transform interface {
	// Name returns the transform's stable identifier for logging.
	Name() string

	// Priority determines execution order; lower runs first.
	Priority() int

	// Apply runs the transform once against the working service set.
	Apply(services map[string]*compose.Service, ingress []IngressEntry, tctx *Context) error
}

// Registry is a priority-ordered collection of transforms. The pipeline
// driver invokes each registered transform exactly once per conversion,
// in ascending priority order.
type Registry struct {
	transforms []Transform
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds transforms to the registry. Registration order breaks ties
// between equal priorities.
func (r *Registry) Register(ts ...Transform) {
	r.transforms = append(r.transforms, ts...)
}

// All returns the registered transforms sorted by ascending priority.
// The sort is stable, so equal priorities keep registration order.
func (r *Registry) All() []Transform {
	out := make([]Transform, len(r.transforms))
	copy(out, r.transforms)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})

	return out
}

// Apply runs every registered transform once, in priority order. The first
// transform error aborts the run; the service set may be left partially
// mutated and the caller decides whether to abandon the conversion.
func (r *Registry) Apply(services map[string]*compose.Service, ingress []IngressEntry, tctx *Context) error {
	for _, t := range r.All() {
		if err := t.Apply(services, ingress, tctx); err != nil {
			return fmt.Errorf("transform %q: %w", t.Name(), err)
		}
	}

	return nil
}
