package spec

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ctenv/ctenv/internal/common"
	"github.com/ctenv/ctenv/internal/config"
	cerrors "github.com/ctenv/ctenv/internal/errors"
	"github.com/ctenv/ctenv/internal/parse"
	"github.com/ctenv/ctenv/internal/runtimectx"
	"github.com/ctenv/ctenv/internal/template"
	"github.com/ctenv/ctenv/internal/ui"
	"github.com/ctenv/ctenv/internal/util"
)

// Resolve performs the spec-resolver stage: project mount and target
// computation, subpath/volume remapping, workdir resolution, gosu
// selection, container naming, tty resolution, and ulimit normalization.
// cc must already be merged and template-expanded; vars is the same
// namespace expansion used so the container-name fallback template can be
// re-rendered if a higher layer explicitly cleared the name to "".
func Resolve(cc *config.ContainerConfig, rc *runtimectx.Context, vars *template.Vars) (*ContainerSpec, error) {
	if img, hasImg := cc.Image.Get(); hasImg && img != "" {
		if bc, hasBuild := cc.Build.Get(); hasBuild && bc != nil {
			return nil, cerrors.New(cerrors.KindPath, "image and build are mutually exclusive").
				With("field", "image").With("value", img)
		}
	}

	projectDir := cc.ProjectDir.GetOr(rc.ProjectDir)

	targetPath, targetOpts, err := parseProjectTarget(cc.ProjectTarget, projectDir)
	if err != nil {
		return nil, err
	}

	s := &ContainerSpec{
		Command:       cc.Command.GetOr(""),
		Runtime:       cc.Runtime.GetOr("docker"),
		Network:       cc.Network.GetOr(""),
		Platform:      cc.Platform.GetOr(""),
		Sudo:          cc.Sudo.GetOr(false),
		RunArgs:       cc.RunArgs.GetOr(nil),
		ProjectDir:    projectDir,
		ProjectTarget: targetPath,
		UserName:      rc.UserName,
		UserID:        rc.UserID,
		UserHome:      rc.UserHome,
		GroupName:     rc.GroupName,
		GroupID:       rc.GroupID,
	}
	if img, ok := cc.Image.Get(); ok {
		s.Image = img
	}

	volumes, err := resolveVolumes(cc, projectDir, targetPath, targetOpts)
	if err != nil {
		return nil, err
	}
	s.Volumes = volumes

	if s.Workdir, err = resolveWorkdir(cc, rc, projectDir, targetPath); err != nil {
		return nil, err
	}
	if !workdirUnderMountPoint(s.Workdir, s.Volumes) {
		ui.Warning("workdir %q is not under any mounted volume", s.Workdir)
	}

	if s.GosuHostPath, err = resolveGosuPath(cc); err != nil {
		return nil, err
	}

	if s.ContainerName, err = resolveContainerName(cc, vars); err != nil {
		return nil, err
	}

	s.TTY = resolveTTY(cc, rc)

	s.Ulimits, err = resolveUlimits(cc)
	if err != nil {
		return nil, err
	}

	s.Env = resolveEnv(cc)

	s.PostStartCommands = cc.PostStartCommands.GetOr(nil)

	if bc, ok := cc.Build.Get(); ok && bc != nil {
		s.Build, err = resolveBuild(bc, projectDir)
		if err != nil {
			return nil, err
		}
		s.Build.Platform = s.Platform
	}

	return s, nil
}

// parseProjectTarget parses the project_target field, which carries the
// same option vocabulary as VolumeSpec but names only a single (container)
// path rather than a host:container pair: PATH[:OPTS].
func parseProjectTarget(v config.Value[string], projectDir string) (path string, opts map[string]bool, err error) {
	raw, ok := v.Get()
	if !ok || raw == "" {
		return projectDir, nil, nil
	}
	path, optsPart, hasOpts := strings.Cut(raw, ":")
	opts = make(map[string]bool)
	if hasOpts {
		for _, o := range strings.Split(optsPart, ",") {
			if o == "" {
				continue
			}
			if o != "ro" && o != "rw" && o != "z" && o != "Z" && o != "chown" {
				return "", nil, cerrors.Newf(cerrors.KindVolumeSyntax, "project_target %q: unknown option %q", raw, o).
					With("field", "project_target").With("value", raw)
			}
			opts[o] = true
		}
	}
	return path, opts, nil
}

func resolveVolumes(cc *config.ContainerConfig, projectDir, targetPath string, targetOpts map[string]bool) ([]Volume, error) {
	var volumes []Volume

	autoMount := cc.AutoProjectMount.GetOr(true)
	subpaths := cc.Subpaths.GetOr(nil)

	if autoMount {
		volumes = append(volumes, Volume{
			Host:      projectDir,
			Container: targetPath,
			ReadOnly:  targetOpts["ro"] && !targetOpts["rw"],
			SELinux:   selinuxOpt(targetOpts),
			Chown:     targetOpts["chown"],
		})
	} else if len(subpaths) > 0 {
		for _, raw := range subpaths {
			vol, err := parse.ParseVolumeSpec(raw)
			if err != nil {
				return nil, cerrors.Wrapf(err, cerrors.KindVolumeSyntax, "invalid subpath spec").With("value", raw).With("field", "subpaths")
			}
			if !util.IsDescendant(projectDir, vol.Host) {
				return nil, cerrors.Newf(cerrors.KindPath, "subpath %q is not inside the project directory %q", vol.Host, projectDir).
					With("field", "subpaths").With("path", vol.Host)
			}
			container := vol.Container
			if container == "" {
				rel, _ := filepath.Rel(projectDir, vol.Host)
				container = filepath.Join(targetPath, rel)
			}
			volumes = append(volumes, Volume{
				Host: vol.Host, Container: container,
				ReadOnly: vol.HasOption("ro") && !vol.HasOption("rw"),
				SELinux:  selinuxOpt(vol.Options), Chown: vol.Chown(),
			})
		}
	}

	for _, raw := range cc.Volumes.GetOr(nil) {
		vol, err := parse.ParseVolumeSpec(raw)
		if err != nil {
			return nil, cerrors.Wrapf(err, cerrors.KindVolumeSyntax, "invalid volume spec").With("value", raw).With("field", "volumes")
		}
		container := vol.Container
		if container == "" {
			if filepath.IsAbs(vol.Host) && util.IsDescendant(projectDir, vol.Host) {
				rel, _ := filepath.Rel(projectDir, vol.Host)
				container = filepath.Join(targetPath, rel)
			} else {
				container = vol.Host
			}
		}
		volumes = append(volumes, Volume{
			Host: vol.Host, Container: container,
			ReadOnly: vol.HasOption("ro") && !vol.HasOption("rw"),
			SELinux:  selinuxOpt(vol.Options), Chown: vol.Chown(),
		})
	}

	return volumes, nil
}

func selinuxOpt(opts map[string]bool) string {
	if opts["Z"] {
		return "Z"
	}
	if opts["z"] {
		return "z"
	}
	return ""
}

func resolveWorkdir(cc *config.ContainerConfig, rc *runtimectx.Context, projectDir, targetPath string) (string, error) {
	workdir := cc.Workdir.GetOr("auto")
	if workdir == "auto" {
		if util.IsDescendant(projectDir, rc.Cwd) {
			rel, _ := filepath.Rel(projectDir, rc.Cwd)
			if rel == "." {
				return targetPath, nil
			}
			return filepath.Join(targetPath, rel), nil
		}
		return targetPath, nil
	}
	if !filepath.IsAbs(workdir) {
		return "", cerrors.Newf(cerrors.KindPath, "workdir %q must be an absolute in-container path", workdir).
			With("field", "workdir").With("value", workdir)
	}
	return workdir, nil
}

// workdirUnderMountPoint reports whether workdir lies at or below one of the
// resolved container mount points. A workdir outside every mount still
// works (the entrypoint just cds into an ordinary image-provided path), so
// this is a warning condition, not an error.
func workdirUnderMountPoint(workdir string, volumes []Volume) bool {
	for _, v := range volumes {
		if util.IsDescendant(v.Container, workdir) {
			return true
		}
	}
	return false
}

func resolveGosuPath(cc *config.ContainerConfig) (string, error) {
	gosuPath := cc.GosuPath.GetOr("auto")
	if gosuPath != "auto" {
		if !util.IsFile(gosuPath) {
			return "", cerrors.Newf(cerrors.KindPath, "gosu_path %q does not exist", gosuPath).
				With("field", "gosu_path").With("path", gosuPath)
		}
		return gosuPath, nil
	}

	arch := runtime.GOARCH
	if platform, ok := cc.Platform.Get(); ok && platform != "" {
		if _, a, found := strings.Cut(platform, "/"); found {
			arch = a
		}
	}
	var asset string
	switch arch {
	case "amd64":
		asset = "gosu-amd64"
	case "arm64":
		asset = "gosu-arm64"
	default:
		return "", cerrors.Newf(cerrors.KindPath, "no bundled privilege-drop helper for architecture %q", arch).
			With("field", "gosu_path")
	}

	exe, err := os.Executable()
	if err != nil {
		return "", cerrors.Wrap(err, cerrors.KindPath, "cannot locate own executable to find bundled gosu helper")
	}
	candidate := filepath.Join(filepath.Dir(exe), "gosu", asset)
	if !util.IsFile(candidate) {
		return "", cerrors.Newf(cerrors.KindPath, "bundled privilege-drop helper %q not found", candidate).
			With("field", "gosu_path").With("path", candidate)
	}
	return candidate, nil
}

func resolveContainerName(cc *config.ContainerConfig, vars *template.Vars) (string, error) {
	name := cc.ContainerName.GetOr("")
	if name != "" {
		return name, nil
	}
	return template.ExpandString(config.Defaults().ContainerName.GetOr(""), vars, "container_name")
}

func resolveTTY(cc *config.ContainerConfig, rc *runtimectx.Context) bool {
	switch cc.TTY.GetOr("auto") {
	case "yes", "true":
		return true
	case "no", "false":
		return false
	default:
		return rc.TTY
	}
}

func resolveUlimits(cc *config.ContainerConfig) ([]parse.Ulimit, error) {
	raw := cc.Ulimits.GetOr(nil)
	if len(raw) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	out := make([]parse.Ulimit, 0, len(raw))
	for _, name := range names {
		u, err := parse.ParseUlimit(name, raw[name])
		if err != nil {
			return nil, cerrors.Wrapf(err, cerrors.KindConfigType, "invalid ulimit").With("field", "ulimits").With("value", name)
		}
		out = append(out, u)
	}
	return out, nil
}

func resolveEnv(cc *config.ContainerConfig) []EnvEntry {
	var out []EnvEntry
	for _, raw := range cc.Env.GetOr(nil) {
		if name, value, ok := strings.Cut(raw, "="); ok {
			out = append(out, EnvEntry{Name: name, Value: value})
		} else {
			out = append(out, EnvEntry{Name: raw, Passthrough: true})
		}
	}
	return out
}

func resolveBuild(bc *config.BuildConfig, projectDir string) (*BuildSpec, error) {
	dockerfile, hasFile := bc.Dockerfile.Get()
	content, hasContent := bc.DockerfileContent.Get()
	if hasFile == hasContent {
		return nil, cerrors.New(cerrors.KindPath, "exactly one of build.dockerfile or build.dockerfile_content must be set").
			With("field", "build")
	}

	bs := &BuildSpec{
		Dockerfile:        dockerfile,
		DockerfileContent: content,
		Tag:               bc.Tag.GetOr(autoTag(projectDir)),
		Args:              bc.Args.GetOr(map[string]string{}),
	}

	ctx := bc.Context.GetOr(".")
	if ctx == "-" {
		bs.EmptyContext = true
	} else if filepath.IsAbs(ctx) {
		bs.Context = ctx
	} else {
		bs.Context = filepath.Join(projectDir, ctx)
	}

	return bs, nil
}

func autoTag(projectDir string) string {
	base := filepath.Base(projectDir)
	base = strings.ReplaceAll(base, "/", "-")
	base = strings.ReplaceAll(base, ":", "-")
	return common.ImageTagPrefix + base
}
