package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// registerPipelineFlags registers the chart loading, rendering, and values
// flags shared by convert, diff, and watch.
func registerPipelineFlags(cmd *cobra.Command, opts *convertOptions) {
	f := cmd.Flags()

	// Rendering flags.
	f.StringVar(&opts.releaseName, "release-name", "release", "Helm release name for rendering")
	f.StringVar(&opts.namespace, "namespace", "default", "Kubernetes namespace for rendering")
	f.BoolVar(&opts.strict, "strict", false, "fail on missing template values")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "template rendering timeout")

	// Values flags.
	f.StringArrayVarP(&opts.valueFiles, "values", "f", nil, "values YAML files (can specify multiple)")
	f.StringArrayVar(&opts.values, "set", nil, "set values (key=value, can specify multiple)")
	f.StringArrayVar(&opts.stringValues, "set-string", nil, "set string values (key=value)")
	f.StringArrayVar(&opts.fileValues, "set-file", nil, "set values from files (key=filepath)")

	// Project flags.
	f.StringVar(&opts.projectName, "project-name", "", "compose project name (default: chart name)")
	f.Int64Var(&opts.maxArchiveSize, "max-archive-size", 0, "maximum chart archive size in bytes (0 = default)")
}
