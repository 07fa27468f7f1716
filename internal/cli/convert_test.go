package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestChart creates a minimal chart directory with one Deployment and
// one Service template.
func writeTestChart(t *testing.T, name string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "templates"), 0o750))

	chartYAML := "apiVersion: v2\nname: " + name + "\nversion: 1.0.0\ntype: application\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Chart.yaml"), []byte(chartYAML), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "values.yaml"), []byte("{}\n"), 0o600))

	deployment := `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
spec:
  template:
    metadata:
      labels:
        app: web
    spec:
      containers:
        - name: web
          image: nginx:1.27
`
	service := `
apiVersion: v1
kind: Service
metadata:
  name: web
spec:
  selector:
    app: web
  ports:
    - port: 8080
      targetPort: 80
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "templates", "deployment.yaml"), []byte(deployment), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "templates", "service.yaml"), []byte(service), 0o600))

	return dir
}

// ---------------------------------------------------------------------------
// Convert — stdout
// ---------------------------------------------------------------------------

func TestConvertCommand_Stdout(t *testing.T) {
	dir := writeTestChart(t, "webapp")

	stdout, stderr, err := executeCommand("convert", dir)
	require.NoError(t, err)

	assert.Contains(t, stdout, "# Generated by helm2compose")
	assert.Contains(t, stdout, "web:")
	assert.Contains(t, stdout, "8080:80")
	assert.Contains(t, stderr, "Conversion Summary")
}

// ---------------------------------------------------------------------------
// Convert — output file
// ---------------------------------------------------------------------------

func TestConvertCommand_OutputFile(t *testing.T) {
	dir := writeTestChart(t, "webapp")
	out := filepath.Join(t.TempDir(), "docker-compose.yaml")

	stdout, _, err := executeCommand("convert", dir, "-o", out)
	require.NoError(t, err)

	// Nothing on stdout when writing to a file.
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "web:")
}

// ---------------------------------------------------------------------------
// Convert — dry run
// ---------------------------------------------------------------------------

func TestConvertCommand_DryRun(t *testing.T) {
	dir := writeTestChart(t, "webapp")
	out := filepath.Join(t.TempDir(), "docker-compose.yaml")

	stdout, stderr, err := executeCommand("convert", dir, "-o", out, "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, stderr, "Dry-run mode")
	assert.Contains(t, stdout, "web:")

	// Dry run must not write the file.
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

// ---------------------------------------------------------------------------
// Convert — project name override
// ---------------------------------------------------------------------------

func TestConvertCommand_ProjectName(t *testing.T) {
	dir := writeTestChart(t, "webapp")

	stdout, _, err := executeCommand("convert", dir, "--project-name", "custom")
	require.NoError(t, err)
	assert.Contains(t, stdout, "name: custom")
}
