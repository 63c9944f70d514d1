package config

// Layer names a precedence-ordered input to the merger, used for
// provenance tracking (config show --explain).
type Layer struct {
	Label  string
	Config *ContainerConfig
}

// Provenance maps each ContainerConfig field name to the label of the
// highest-precedence layer that actually set it (Unset layers never win).
type Provenance map[string]string

// MergeResult is the merged ContainerConfig plus the provenance record
// describing which layer last spoke for each field.
type MergeResult struct {
	Config     *ContainerConfig
	Provenance Provenance
}

// Merge layers a sequence of ContainerConfig records in precedence order,
// lowest first. For each field: the first (from the end, i.e. highest
// precedence) layer that is not Unset wins, including an explicit Null.
// There is no deep merge and no list concatenation — a field is replaced
// wholesale, never appended to. Named-container shadowing (a project-scope
// container fully replacing a same-named user-scope one) falls out of this
// naturally: the caller passes the single selected container layer, not
// both.
func Merge(layers ...Layer) MergeResult {
	out := &ContainerConfig{}
	prov := make(Provenance)

	merge := func(field string, setIt func(l *ContainerConfig) bool) {
		for _, layer := range layers {
			if setIt(layer.Config) {
				prov[field] = layer.Label
			}
		}
	}

	merge("image", func(l *ContainerConfig) bool {
		if l.Image.IsUnset() {
			return false
		}
		out.Image = l.Image
		return true
	})
	merge("command", func(l *ContainerConfig) bool {
		if l.Command.IsUnset() {
			return false
		}
		out.Command = l.Command
		return true
	})
	merge("project_dir", func(l *ContainerConfig) bool {
		if l.ProjectDir.IsUnset() {
			return false
		}
		out.ProjectDir = l.ProjectDir
		return true
	})
	merge("project_target", func(l *ContainerConfig) bool {
		if l.ProjectTarget.IsUnset() {
			return false
		}
		out.ProjectTarget = l.ProjectTarget
		return true
	})
	merge("auto_project_mount", func(l *ContainerConfig) bool {
		if l.AutoProjectMount.IsUnset() {
			return false
		}
		out.AutoProjectMount = l.AutoProjectMount
		return true
	})
	merge("subpaths", func(l *ContainerConfig) bool {
		if l.Subpaths.IsUnset() {
			return false
		}
		out.Subpaths = l.Subpaths
		return true
	})
	merge("workdir", func(l *ContainerConfig) bool {
		if l.Workdir.IsUnset() {
			return false
		}
		out.Workdir = l.Workdir
		return true
	})
	merge("gosu_path", func(l *ContainerConfig) bool {
		if l.GosuPath.IsUnset() {
			return false
		}
		out.GosuPath = l.GosuPath
		return true
	})
	merge("container_name", func(l *ContainerConfig) bool {
		if l.ContainerName.IsUnset() {
			return false
		}
		out.ContainerName = l.ContainerName
		return true
	})
	merge("tty", func(l *ContainerConfig) bool {
		if l.TTY.IsUnset() {
			return false
		}
		out.TTY = l.TTY
		return true
	})
	merge("sudo", func(l *ContainerConfig) bool {
		if l.Sudo.IsUnset() {
			return false
		}
		out.Sudo = l.Sudo
		return true
	})
	merge("network", func(l *ContainerConfig) bool {
		if l.Network.IsUnset() {
			return false
		}
		out.Network = l.Network
		return true
	})
	merge("platform", func(l *ContainerConfig) bool {
		if l.Platform.IsUnset() {
			return false
		}
		out.Platform = l.Platform
		return true
	})
	merge("ulimits", func(l *ContainerConfig) bool {
		if l.Ulimits.IsUnset() {
			return false
		}
		out.Ulimits = l.Ulimits
		return true
	})
	merge("env", func(l *ContainerConfig) bool {
		if l.Env.IsUnset() {
			return false
		}
		out.Env = l.Env
		return true
	})
	merge("volumes", func(l *ContainerConfig) bool {
		if l.Volumes.IsUnset() {
			return false
		}
		out.Volumes = l.Volumes
		return true
	})
	merge("post_start_commands", func(l *ContainerConfig) bool {
		if l.PostStartCommands.IsUnset() {
			return false
		}
		out.PostStartCommands = l.PostStartCommands
		return true
	})
	merge("run_args", func(l *ContainerConfig) bool {
		if l.RunArgs.IsUnset() {
			return false
		}
		out.RunArgs = l.RunArgs
		return true
	})
	merge("runtime", func(l *ContainerConfig) bool {
		if l.Runtime.IsUnset() {
			return false
		}
		out.Runtime = l.Runtime
		return true
	})
	merge("build", func(l *ContainerConfig) bool {
		if l.Build.IsUnset() {
			return false
		}
		out.Build = l.Build
		return true
	})
	merge("default", func(l *ContainerConfig) bool {
		if l.Default.IsUnset() {
			return false
		}
		out.Default = l.Default
		return true
	})

	// ConfigFilePath is non-merge metadata: record whichever layer with
	// the highest precedence actually originated from a file.
	for _, layer := range layers {
		if layer.Config.ConfigFilePath != "" {
			out.ConfigFilePath = layer.Config.ConfigFilePath
		}
	}

	return MergeResult{Config: out, Provenance: prov}
}
