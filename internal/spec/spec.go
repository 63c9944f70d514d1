// Package spec translates a merged, template-expanded ContainerConfig plus
// a captured RuntimeContext into a ContainerSpec: a fully resolved record
// with no unset sentinels, no unresolved templates, and no relative paths,
// ready for the entrypoint generator and runtime driver.
package spec

import "github.com/ctenv/ctenv/internal/parse"

// EnvEntry is one resolved `-e` argument: either an explicit NAME=VALUE
// pair, or a bare NAME passthrough of the tool's own process environment.
type EnvEntry struct {
	Name        string
	Value       string
	Passthrough bool
}

// Volume is a fully resolved mount: both Host and Container are absolute.
// Chown records whether the entrypoint script should recursively chown
// Container after identity setup; it is never passed to the runtime.
type Volume struct {
	Host      string
	Container string
	ReadOnly  bool
	SELinux   string // "", "z", or "Z"
	Chown     bool
}

// BuildSpec is the fully resolved image-build request.
type BuildSpec struct {
	Dockerfile        string // host path, mutually exclusive with DockerfileContent
	DockerfileContent string
	Context           string // host path; meaningless when EmptyContext is true
	EmptyContext      bool
	Tag               string
	Args              map[string]string
	Platform          string
}

// ContainerSpec is the fully resolved, executable specification the
// entrypoint generator and runtime driver consume.
type ContainerSpec struct {
	Image   string // empty when Build is set; filled in with the built tag before the run invocation
	Command string
	Runtime string

	ContainerName string
	Network       string
	Platform      string
	TTY           bool
	Sudo          bool
	Ulimits       []parse.Ulimit
	Volumes       []Volume
	Env           []EnvEntry
	PostStartCommands []string
	RunArgs       []string
	Workdir       string

	GosuHostPath string

	ProjectDir    string
	ProjectTarget string

	UserName  string
	UserID    int
	UserHome  string
	GroupName string
	GroupID   int

	Build *BuildSpec
}
