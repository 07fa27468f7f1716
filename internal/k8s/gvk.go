package k8s

import "k8s.io/apimachinery/pkg/runtime/schema"

// GVK classification functions used by the converter to branch by kind.

// IsWorkload returns true for pod-bearing workload resources.
func IsWorkload(gvk schema.GroupVersionKind) bool {
	switch gvk.Kind {
	case "Deployment", "StatefulSet", "DaemonSet":
		return gvk.Group == "apps"
	case "Job":
		return gvk.Group == "batch"
	}

	return false
}

// IsService returns true for core Service resources.
func IsService(gvk schema.GroupVersionKind) bool {
	return (gvk.Group == "" || gvk.Group == "core") && gvk.Kind == "Service"
}

// IsConfig returns true for configuration resources (ConfigMap, Secret).
func IsConfig(gvk schema.GroupVersionKind) bool {
	if gvk.Group != "" && gvk.Group != "core" {
		return false
	}

	return gvk.Kind == "ConfigMap" || gvk.Kind == "Secret"
}

// IsIngress returns true for Ingress resources.
func IsIngress(gvk schema.GroupVersionKind) bool {
	return gvk.Kind == "Ingress" && (gvk.Group == "networking.k8s.io" || gvk.Group == "extensions")
}
