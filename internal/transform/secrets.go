package transform

import (
	"encoding/base64"
	"unicode/utf8"
)

// SecretRecord holds the credential material of one Kubernetes Secret
// manifest: plaintext stringData pairs and base64-encoded data pairs.
// Records are read-only to transforms.
type SecretRecord struct {
	StringData map[string]string
	Data       map[string]string
}

// Value returns the value for key. The plaintext stringData mapping is
// checked first, then the base64 data mapping. Values that fail to decode
// to UTF-8 text are returned as the raw encoded string rather than failing.
func (r *SecretRecord) Value(key string) (string, bool) {
	if r == nil {
		return "", false
	}

	if v, ok := r.StringData[key]; ok {
		return v, true
	}

	v, ok := r.Data[key]
	if !ok {
		return "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(v)
	if err != nil || !utf8.Valid(decoded) {
		return v, true
	}

	return string(decoded), true
}

// SecretStore maps secret names to their records.
type SecretStore map[string]*SecretRecord

// Resolve returns the first candidate name present in the store together
// with its record. Candidates are tried in order, most specific first;
// matching is exact-name only.
func (s SecretStore) Resolve(candidates ...string) (string, *SecretRecord, bool) {
	for _, name := range candidates {
		if rec, ok := s[name]; ok {
			return name, rec, true
		}
	}

	return "", nil, false
}
