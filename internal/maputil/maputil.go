// Package maputil provides shared map-copying helpers used by the compose
// model and the conversion pipeline.
package maputil

// CloneStringMap returns a shallow copy of a string map. A nil input stays
// nil so "environment absent" survives cloning.
func CloneStringMap(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}

	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}

	return dst
}
