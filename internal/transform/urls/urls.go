// Package urls flattens in-cluster DNS names in environment values down to
// plain compose service names. Kubernetes charts wire services together via
// <service>.<namespace>.svc.cluster.local hostnames; on a compose network
// the service name alone resolves.
package urls

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hupe1980/helm2compose/internal/compose"
	"github.com/hupe1980/helm2compose/internal/transform"
)

// clusterHost matches <service>.<namespace> hostnames with an optional
// .svc or .svc.cluster.local suffix. Group 1 is the service name, group 3
// is the suffix (unmatched for the bare two-label form).
var clusterHost = regexp.MustCompile(`([a-zA-Z0-9][a-zA-Z0-9-]*)\.([a-zA-Z0-9][a-zA-Z0-9-]*)(\.svc(\.cluster\.local)?)?`)

// Transform is the flatten-internal-urls stage.
type Transform struct{}

// New creates the URL flattening transform.
func New() *Transform {
	return &Transform{}
}

// Name returns the stable transform identifier.
func (t *Transform) Name() string { return "flatten-internal-urls" }

// Priority places the transform last, after all service rewrites, so it
// sees the final service set.
func (t *Transform) Priority() int { return transform.PriorityURLRewrite }

// Apply rewrites cluster-internal hostnames in env values to the bare
// service name, but only when a service of that name exists in the set.
// Unknown hostnames are left alone.
func (t *Transform) Apply(services map[string]*compose.Service, _ []transform.IngressEntry, tctx *transform.Context) error {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		svc := services[name]

		if tctx.Overridden(name) {
			continue
		}

		for _, key := range sortedKeys(svc.Environment) {
			val := svc.Environment[key]

			flattened := flatten(val, services)
			if flattened != val {
				svc.Environment[key] = flattened
				tctx.Recordf("  [flatten-internal-urls] %s: %s → %s", name, key, flattened)
			}
		}
	}

	return nil
}

// flatten rewrites every cluster hostname in val whose service segment
// names an existing compose service. A bare <service>.<namespace> match
// that is followed by a further DNS label is an ordinary domain name and
// stays untouched.
func flatten(val string, services map[string]*compose.Service) string {
	matches := clusterHost.FindAllStringSubmatchIndex(val, -1)
	if matches == nil {
		return val
	}

	var b strings.Builder

	last := 0

	for _, m := range matches {
		start, end := m[0], m[1]
		target := val[m[2]:m[3]]
		bare := m[6] < 0

		if _, ok := services[target]; !ok {
			continue
		}

		if bare && end < len(val) && val[end] == '.' {
			continue
		}

		b.WriteString(val[last:start])
		b.WriteString(target)
		last = end
	}

	b.WriteString(val[last:])

	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
