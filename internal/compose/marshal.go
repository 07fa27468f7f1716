package compose

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalOptions configures compose YAML serialization.
type MarshalOptions struct {
	// Header is an optional comment block written above the document.
	// Each line is prefixed with "# ".
	Header []string

	// Indent is the number of spaces per indentation level (default: 2).
	Indent int
}

// Marshal serializes the project to compose YAML bytes. Service names and
// map keys are emitted in sorted order, so output is deterministic.
func Marshal(p *Project, opts MarshalOptions) ([]byte, error) {
	if opts.Indent == 0 {
		opts.Indent = 2
	}

	var buf bytes.Buffer

	for _, line := range opts.Header {
		if line == "" {
			buf.WriteString("#\n")
			continue
		}

		buf.WriteString("# ")
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(opts.Indent)

	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encoding compose project: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalizing compose document: %w", err)
	}

	return buf.Bytes(), nil
}
