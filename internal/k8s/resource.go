// Package k8s provides Kubernetes resource abstractions for parsed manifests.
package k8s

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Resource represents a parsed Kubernetes resource with its GVK, metadata,
// and full unstructured representation.
type Resource struct {
	// GVK is the GroupVersionKind of the resource.
	GVK schema.GroupVersionKind

	// Name is metadata.name.
	Name string

	// Namespace is metadata.namespace (may be empty for cluster-scoped).
	Namespace string

	// Labels from metadata.labels.
	Labels map[string]string

	// Annotations from metadata.annotations.
	Annotations map[string]string

	// Object is the full unstructured representation.
	Object *unstructured.Unstructured
}

// APIVersion returns the apiVersion string (e.g. "apps/v1").
func (r *Resource) APIVersion() string {
	if r.Object != nil {
		return r.Object.GetAPIVersion()
	}

	return r.GVK.GroupVersion().String()
}

// Kind returns the resource kind (e.g. "Deployment").
func (r *Resource) Kind() string {
	return r.GVK.Kind
}

// QualifiedName returns "kind/name" for display purposes.
func (r *Resource) QualifiedName() string {
	return r.GVK.Kind + "/" + r.Name
}
