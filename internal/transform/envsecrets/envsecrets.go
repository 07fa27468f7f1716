// Package envsecrets resolves secret-reference environment placeholders
// recorded by the manifest converter into literal values. Kubernetes
// workloads commonly pull individual env vars from Secrets via
// valueFrom.secretKeyRef; compose has no equivalent, so the converter
// records a placeholder and this transform inlines the real value.
package envsecrets

import (
	"sort"
	"strings"

	"github.com/hupe1980/helm2compose/internal/compose"
	"github.com/hupe1980/helm2compose/internal/transform"
)

// Prefix marks an environment value as an unresolved secret reference of
// the form secretref://<secret-name>/<key>.
const Prefix = "secretref://"

// Ref builds the placeholder value for a secret key reference.
func Ref(secretName, key string) string {
	return Prefix + secretName + "/" + key
}

// Transform inlines secretref:// placeholders.
type Transform struct{}

// New creates the env secret resolver transform.
func New() *Transform {
	return &Transform{}
}

// Name returns the stable transform identifier.
func (t *Transform) Name() string { return "env-secrets" }

// Priority places the transform in the converter band, ahead of the image
// family workarounds.
func (t *Transform) Priority() int { return transform.PriorityConverters }

// Apply resolves every placeholder env value against the secret store.
// Unresolvable references degrade to removing the variable with a warning;
// a missing secret never aborts the conversion.
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
			if !strings.HasPrefix(val, Prefix) {
				continue
			}

			secretName, secretKey, ok := parseRef(val)
			if !ok {
				delete(svc.Environment, key)
				tctx.Recordf("  [env-secrets] %s: ⚠ malformed secret reference for %s, variable dropped", name, key)

				continue
			}

			_, record, found := tctx.Secrets().Resolve(secretName)
			if !found {
				delete(svc.Environment, key)
				tctx.Recordf("  [env-secrets] %s: ⚠ Secret '%s' not found, %s dropped", name, secretName, key)

				continue
			}

			value, ok := record.Value(secretKey)
			if !ok {
				delete(svc.Environment, key)
				tctx.Recordf("  [env-secrets] %s: ⚠ key '%s' missing in Secret '%s', %s dropped", name, secretKey, secretName, key)

				continue
			}

			svc.Environment[key] = value
			tctx.Recordf("  [env-secrets] %s: %s set from Secret '%s'", name, key, secretName)
		}
	}

	return nil
}

// parseRef splits secretref://<name>/<key> into its parts.
func parseRef(val string) (secretName, key string, ok bool) {
	rest := strings.TrimPrefix(val, Prefix)

	idx := strings.LastIndex(rest, "/")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", false
	}

	return rest[:idx], rest[idx+1:], true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
