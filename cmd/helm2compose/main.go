// helm2compose converts Helm charts into Docker Compose projects.
package main

import (
	"os"

	"github.com/hupe1980/helm2compose/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
