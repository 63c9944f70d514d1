// Package config implements the layered container-configuration model: the
// partial, file/CLI-sourced ContainerConfig record, its loader, and the
// fixed-precedence merger. Variable substitution and final spec resolution
// live in the sibling internal/template and internal/spec packages.
package config

// ContainerConfig is one layer of container configuration: built-in
// defaults, a config file's `defaults` table, a config file's
// `containers.<name>` table, or CLI overrides. Every field is a Value[T]
// so a layer can distinguish "didn't mention this" from "set this to
// null/empty" — see value.go.
type ContainerConfig struct {
	Image             Value[string]
	Command           Value[string]
	ProjectDir        Value[string]
	ProjectTarget     Value[string]
	AutoProjectMount  Value[bool]
	Subpaths          Value[[]string]
	Workdir           Value[string]
	GosuPath          Value[string]
	ContainerName     Value[string]
	TTY               Value[string] // "auto", "yes", or "no"
	Sudo              Value[bool]
	Network           Value[string]
	Platform          Value[string]
	Ulimits           Value[map[string]string]
	Env               Value[[]string]
	Volumes           Value[[]string]
	PostStartCommands Value[[]string]
	RunArgs           Value[[]string]
	Runtime           Value[string] // "docker" or "podman"
	Build             Value[*BuildConfig]
	Default           Value[bool]

	// ConfigFilePath is non-merge metadata: the path to the file this layer
	// was loaded from, or "" for the built-in defaults layer and CLI
	// overrides. It does not follow the per-field merge rule; Merge copies
	// the path of the highest-precedence file-backed layer onto the merged
	// record. The loader resolves relative paths against the file's
	// directory before this field is read by anything.
	ConfigFilePath string
}

// BuildConfig is the image-build sub-record. Per the data model, exactly
// one of Dockerfile/DockerfileContent is set whenever Build is present,
// and Image is unset on the owning ContainerConfig whenever Build is set
// — both invariants are checked by the spec resolver, not here.
type BuildConfig struct {
	Dockerfile        Value[string]
	DockerfileContent Value[string]
	Context           Value[string] // default "."; "-" means empty context
	Tag               Value[string]
	Args              Value[map[string]string]
}

// Defaults returns the built-in default layer: the lowest-precedence input
// to the merger. Fields not listed here remain Unset, meaning the merger
// will never override a higher layer's silence with a wrong guess — every
// field that has an actual default is spelled out explicitly.
func Defaults() *ContainerConfig {
	return &ContainerConfig{
		AutoProjectMount: Of(true),
		Workdir:          Of("auto"),
		GosuPath:         Of("auto"),
		ContainerName:    Of("ctenv-${project_dir|slug}-${pid}"),
		TTY:              Of("auto"),
		Sudo:             Of(false),
		Runtime:          Of("docker"),
	}
}
