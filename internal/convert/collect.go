package convert

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/hupe1980/helm2compose/internal/k8s"
	"github.com/hupe1980/helm2compose/internal/transform"
)

// collectState holds the first-pass lookup tables consumed while converting
// workloads in the second pass.
type collectState struct {
	// configMaps maps ConfigMap name to its data pairs.
	configMaps map[string]map[string]string

	// services are the collected v1 Services, matched against pod labels
	// to derive published ports.
	services []serviceSpec
}

// serviceSpec is the port-relevant part of a v1 Service.
type serviceSpec struct {
	name     string
	selector map[string]string
	ports    []servicePort
}

type servicePort struct {
	port       int64
	targetPort int64
}

func newCollectState() *collectState {
	return &collectState{
		configMaps: make(map[string]map[string]string),
	}
}

// collectConfig records a Secret into the result's secret store or a
// ConfigMap into the lookup state.
func collectConfig(r *k8s.Resource, result *Result, state *collectState) {
	if r.Object == nil {
		return
	}

	switch r.GVK.Kind {
	case "Secret":
		result.Secrets[r.Name] = &transform.SecretRecord{
			StringData: nestedStringMap(r.Object, "stringData"),
			Data:       nestedStringMap(r.Object, "data"),
		}
	case "ConfigMap":
		state.configMaps[r.Name] = nestedStringMap(r.Object, "data")
	}
}

// collectService extracts selector and ports from a v1 Service.
func collectService(r *k8s.Resource) serviceSpec {
	spec := serviceSpec{name: r.Name}

	if r.Object == nil {
		return spec
	}

	selector, _, _ := unstructured.NestedStringMap(r.Object.Object, "spec", "selector")
	spec.selector = selector

	ports, _, _ := unstructured.NestedSlice(r.Object.Object, "spec", "ports")
	for _, p := range ports {
		m, ok := p.(map[string]interface{})
		if !ok {
			continue
		}

		sp := servicePort{port: toInt64(m["port"])}

		// Named targetPorts cannot be resolved without the container spec;
		// fall back to the service port.
		sp.targetPort = toInt64(m["targetPort"])
		if sp.targetPort == 0 {
			sp.targetPort = sp.port
		}

		if sp.port > 0 {
			spec.ports = append(spec.ports, sp)
		}
	}

	return spec
}

// collectIngress extracts host/path/backend routes from an Ingress.
func collectIngress(r *k8s.Resource) []transform.IngressEntry {
	if r.Object == nil {
		return nil
	}

	rules, _, _ := unstructured.NestedSlice(r.Object.Object, "spec", "rules")

	var entries []transform.IngressEntry

	for _, rule := range rules {
		rm, ok := rule.(map[string]interface{})
		if !ok {
			continue
		}

		host, _ := rm["host"].(string)

		paths, _, _ := unstructured.NestedSlice(rm, "http", "paths")
		for _, path := range paths {
			pm, ok := path.(map[string]interface{})
			if !ok {
				continue
			}

			entry := transform.IngressEntry{Host: host}
			entry.Path, _ = pm["path"].(string)
			entry.Service, _, _ = unstructured.NestedString(pm, "backend", "service", "name")

			port, _, _ := unstructured.NestedFieldNoCopy(pm, "backend", "service", "port", "number")
			entry.Port = int(toInt64(port))

			if entry.Service != "" {
				entries = append(entries, entry)
			}
		}
	}

	return entries
}

// nestedStringMap reads a map[string]string field, tolerating the
// map[string]interface{} shape the YAML decoder produces.
func nestedStringMap(u *unstructured.Unstructured, fields ...string) map[string]string {
	m, found, err := unstructured.NestedStringMap(u.Object, fields...)
	if !found || err != nil {
		return nil
	}

	return m
}

// toInt64 normalizes the numeric types the YAML decoder may produce.
func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}

	return 0
}
