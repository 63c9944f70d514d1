// Command ctenv runs an arbitrary command inside a docker or podman
// container while mirroring the invoking host user's identity, file
// ownership, working directory, and environment into the container.
package main

import (
	"os"

	"github.com/ctenv/ctenv/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
