package k8s

import "strings"

// IsImageDigest returns true if the image reference is pinned by digest.
func IsImageDigest(image string) bool {
	return strings.Contains(image, "@sha256:")
}

// HasLatestTag returns true if the image uses :latest or has no explicit
// tag. Digest-pinned images are never considered "latest". The converter
// warns about such images because compose restarts re-pull them.
func HasLatestTag(image string) bool {
	if len(image) == 0 {
		return false
	}

	if IsImageDigest(image) {
		return false
	}

	// Look at the reference part after the last slash so colons in the
	// registry hostname (registry.io:5000/app) are not mistaken for tags.
	ref := image
	if slashIdx := strings.LastIndex(ref, "/"); slashIdx >= 0 {
		ref = ref[slashIdx+1:]
	}

	if colonIdx := strings.LastIndex(ref, ":"); colonIdx >= 0 {
		return ref[colonIdx+1:] == "latest"
	}

	// No tag specified — defaults to latest.
	return true
}
