// Package common provides shared utilities and constants used across ctenv packages.
package common

const (
	// ImageTagPrefix is the prefix for ctenv-built images.
	// Format: ctenv/{project-slug}
	ImageTagPrefix = "ctenv/"

	// GosuContainerPath is the fixed in-container path the privilege-drop
	// helper is mounted at, regardless of which host binary is selected.
	GosuContainerPath = "/usr/local/bin/ctenv-gosu"

	// EntrypointContainerPath is the fixed in-container path the generated
	// entrypoint script is mounted at.
	EntrypointContainerPath = "/usr/local/bin/ctenv-entrypoint.sh"

	// ManagedLabel is the label applied to every container ctenv runs, for
	// discoverability by other tooling (e.g. `docker ps --filter`).
	ManagedLabel = "se.osd.ctenv.managed=true"
)
