package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ctenv/ctenv/internal/config"
)

// containerFlags holds every flag shared between `run` and `build` — the
// full container/build flag set from the CLI surface. `config show`
// registers the same set, so its output reflects any CLI overrides.
type containerFlags struct {
	runtime                string
	image                  string
	projectDir             string
	projectTarget          string
	noAutoProjectMount     bool
	subpaths               []string
	workdir                string
	gosuPath               string
	name                   string
	tty                    string
	sudo                   bool
	network                string
	platform               string
	ulimits                []string
	env                    []string
	volumes                []string
	postStartCommands      []string
	runArgs                []string
	buildDockerfile        string
	buildDockerfileContent string
	buildContext           string
	buildTag               string
	buildArgs              []string
	dryRun                 bool
}

func registerContainerFlags(cmd *cobra.Command, f *containerFlags) {
	fl := cmd.Flags()
	fl.StringVar(&f.runtime, "runtime", "", "container runtime: docker or podman")
	fl.StringVar(&f.image, "image", "", "image reference to run")
	fl.StringVar(&f.projectDir, "project-dir", "", "host project directory")
	fl.StringVar(&f.projectTarget, "project-target", "", "in-container mount point for the project directory")
	fl.BoolVar(&f.noAutoProjectMount, "no-auto-project-mount", false, "disable auto-mounting the whole project directory")
	fl.StringArrayVar(&f.subpaths, "subpath", nil, "mount only this project subpath (repeatable)")
	fl.StringVar(&f.workdir, "workdir", "", "absolute in-container working directory")
	fl.StringVar(&f.gosuPath, "gosu-path", "", "host path to the privilege-drop helper binary")
	fl.StringVar(&f.name, "name", "", "container name")
	fl.StringVar(&f.tty, "tty", "", "auto|yes|no")
	fl.BoolVar(&f.sudo, "sudo", false, "install and NOPASSWD the target user")
	fl.StringVar(&f.network, "network", "", "runtime network")
	fl.StringVar(&f.platform, "platform", "", "target platform, e.g. linux/amd64")
	fl.StringArrayVar(&f.ulimits, "ulimit", nil, "NAME=VALUE (repeatable)")
	fl.StringArrayVarP(&f.env, "env", "e", nil, "NAME[=VALUE] (repeatable)")
	// The specification's CLI grammar also lists -v as the volume
	// shorthand, but -v is already claimed by the root command's
	// persistent --verbose flag; --volume is long-form only here to
	// avoid a shorthand collision cobra cannot resolve.
	fl.StringArrayVar(&f.volumes, "volume", nil, "HOST[:CONTAINER[:OPTS]] (repeatable)")
	fl.StringArrayVar(&f.postStartCommands, "post-start-command", nil, "command run as root after setup (repeatable)")
	fl.StringArrayVar(&f.runArgs, "run-arg", nil, "extra argument passed verbatim to the runtime (repeatable)")
	fl.StringVar(&f.buildDockerfile, "build-dockerfile", "", "path to a Dockerfile to build")
	fl.StringVar(&f.buildDockerfileContent, "build-dockerfile-content", "", "inline Dockerfile content to build")
	fl.StringVar(&f.buildContext, "build-context", "", "build context directory (\"-\" for an empty context)")
	fl.StringVar(&f.buildTag, "build-tag", "", "tag to apply to the built image")
	fl.StringArrayVar(&f.buildArgs, "build-arg", nil, "KEY=VALUE build arg (repeatable)")
	fl.BoolVar(&f.dryRun, "dry-run", false, "print the assembled invocation and exit without executing")
}

// notsetOr returns the unset sentinel for the literal "NOTSET", or a
// concrete value otherwise — the same rule the config-file loader applies.
func notsetOr(s string) config.Value[string] {
	if s == "NOTSET" {
		return config.Unset[string]()
	}
	return config.Of(s)
}

// resolveCLIPath resolves a possibly relative CLI path argument against cwd;
// CLI path flags always resolve against the invoking working directory.
func resolveCLIPath(cwd, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cwd, p)
}

func resolveVolumeHostCLI(cwd, spec string) string {
	host, rest, hasRest := strings.Cut(spec, ":")
	if host == "" {
		return spec
	}
	host = resolveCLIPath(cwd, host)
	if hasRest {
		return host + ":" + rest
	}
	return host
}

// toLayer builds the CLI override layer from whichever flags were actually
// passed — flags.Changed distinguishes "not supplied" (stays Unset) from
// "supplied" even when the value happens to equal the zero value.
func (f *containerFlags) toLayer(cmd *cobra.Command, cwd string) *config.ContainerConfig {
	fl := cmd.Flags()
	cc := &config.ContainerConfig{}

	if fl.Changed("runtime") {
		cc.Runtime = notsetOr(f.runtime)
	}
	if fl.Changed("image") {
		cc.Image = notsetOr(f.image)
	}
	if fl.Changed("project-dir") {
		cc.ProjectDir = notsetOr(resolveCLIPath(cwd, f.projectDir))
	}
	if fl.Changed("project-target") {
		cc.ProjectTarget = notsetOr(f.projectTarget)
	}
	if fl.Changed("no-auto-project-mount") {
		cc.AutoProjectMount = config.Of(false)
	}
	if len(f.subpaths) > 0 {
		resolved := make([]string, len(f.subpaths))
		for i, s := range f.subpaths {
			resolved[i] = resolveVolumeHostCLI(cwd, s)
		}
		cc.Subpaths = config.Of(resolved)
	}
	if fl.Changed("workdir") {
		cc.Workdir = notsetOr(f.workdir)
	}
	if fl.Changed("gosu-path") {
		cc.GosuPath = notsetOr(resolveCLIPath(cwd, f.gosuPath))
	}
	if fl.Changed("name") {
		cc.ContainerName = notsetOr(f.name)
	}
	if fl.Changed("tty") {
		cc.TTY = notsetOr(f.tty)
	}
	if fl.Changed("sudo") {
		cc.Sudo = config.Of(f.sudo)
	}
	if fl.Changed("network") {
		cc.Network = notsetOr(f.network)
	}
	if fl.Changed("platform") {
		cc.Platform = notsetOr(f.platform)
	}
	if len(f.ulimits) > 0 {
		m := make(map[string]string, len(f.ulimits))
		for _, u := range f.ulimits {
			name, val, _ := strings.Cut(u, "=")
			m[name] = val
		}
		cc.Ulimits = config.Of(m)
	}
	if len(f.env) > 0 {
		cc.Env = config.Of(f.env)
	}
	if len(f.volumes) > 0 {
		resolved := make([]string, len(f.volumes))
		for i, s := range f.volumes {
			resolved[i] = resolveVolumeHostCLI(cwd, s)
		}
		cc.Volumes = config.Of(resolved)
	}
	if len(f.postStartCommands) > 0 {
		cc.PostStartCommands = config.Of(f.postStartCommands)
	}
	if len(f.runArgs) > 0 {
		cc.RunArgs = config.Of(f.runArgs)
	}

	if fl.Changed("build-dockerfile") || fl.Changed("build-dockerfile-content") ||
		fl.Changed("build-context") || fl.Changed("build-tag") || len(f.buildArgs) > 0 {
		bc := &config.BuildConfig{}
		if fl.Changed("build-dockerfile") {
			bc.Dockerfile = config.Of(resolveCLIPath(cwd, f.buildDockerfile))
		}
		if fl.Changed("build-dockerfile-content") {
			bc.DockerfileContent = config.Of(f.buildDockerfileContent)
		}
		if fl.Changed("build-context") {
			if f.buildContext == "-" {
				bc.Context = config.Of("-")
			} else {
				bc.Context = config.Of(resolveCLIPath(cwd, f.buildContext))
			}
		}
		if fl.Changed("build-tag") {
			bc.Tag = config.Of(f.buildTag)
		}
		if len(f.buildArgs) > 0 {
			args := make(map[string]string, len(f.buildArgs))
			for _, a := range f.buildArgs {
				name, val, _ := strings.Cut(a, "=")
				args[name] = val
			}
			bc.Args = config.Of(args)
		}
		cc.Build = config.Of(bc)
	}

	return cc
}
