package template

import (
	"os"
	"strconv"

	"github.com/ctenv/ctenv/internal/config"
	"github.com/ctenv/ctenv/internal/runtimectx"
)

// VarsFor builds the substitution namespace for one invocation: the merged
// ContainerConfig's own fields (so e.g. container_name can reference
// ${image}), the RuntimeContext's identity/path fields, and an env.NAME
// passthrough to the process environment.
func VarsFor(cc *config.ContainerConfig, rc *runtimectx.Context) *Vars {
	v := NewVars()
	v.EnvLookup = func(name string) (string, bool) { return os.LookupEnv(name) }

	if s, ok := cc.Image.Get(); ok {
		v.Set("image", s)
	}
	if s, ok := cc.Command.Get(); ok {
		v.Set("command", s)
	}
	if s, ok := cc.ProjectTarget.Get(); ok {
		v.Set("project_target", s)
	}
	if s, ok := cc.Workdir.Get(); ok {
		v.Set("workdir", s)
	}
	if s, ok := cc.Network.Get(); ok {
		v.Set("network", s)
	}
	if s, ok := cc.Platform.Get(); ok {
		v.Set("platform", s)
	}
	if s, ok := cc.ContainerName.Get(); ok {
		v.Set("container_name", s)
	}

	v.Set("user_name", rc.UserName)
	v.Set("user_id", strconv.Itoa(rc.UserID))
	v.Set("user_home", rc.UserHome)
	v.Set("group_name", rc.GroupName)
	v.Set("group_id", strconv.Itoa(rc.GroupID))
	v.Set("project_dir", cc.ProjectDir.GetOr(rc.ProjectDir))
	v.Set("pid", strconv.Itoa(rc.PID))

	return v
}

// Expand returns a copy of cc with every string and string-list field
// (including the build sub-record's string fields) expanded; cc itself is
// not modified. Fields left Unset are never touched — there is nothing to
// substitute into.
func Expand(cc *config.ContainerConfig, vars *Vars) (*config.ContainerConfig, error) {
	out := *cc

	var err error
	if out.Image, err = expandStringField(cc.Image, vars, "image"); err != nil {
		return nil, err
	}
	if out.Command, err = expandStringField(cc.Command, vars, "command"); err != nil {
		return nil, err
	}
	if out.ProjectDir, err = expandStringField(cc.ProjectDir, vars, "project_dir"); err != nil {
		return nil, err
	}
	if out.ProjectTarget, err = expandStringField(cc.ProjectTarget, vars, "project_target"); err != nil {
		return nil, err
	}
	if out.Workdir, err = expandStringField(cc.Workdir, vars, "workdir"); err != nil {
		return nil, err
	}
	if out.GosuPath, err = expandStringField(cc.GosuPath, vars, "gosu_path"); err != nil {
		return nil, err
	}
	if out.ContainerName, err = expandStringField(cc.ContainerName, vars, "container_name"); err != nil {
		return nil, err
	}
	if out.Network, err = expandStringField(cc.Network, vars, "network"); err != nil {
		return nil, err
	}
	if out.Platform, err = expandStringField(cc.Platform, vars, "platform"); err != nil {
		return nil, err
	}
	if out.TTY, err = expandStringField(cc.TTY, vars, "tty"); err != nil {
		return nil, err
	}
	if out.Runtime, err = expandStringField(cc.Runtime, vars, "runtime"); err != nil {
		return nil, err
	}
	if out.Subpaths, err = expandListField(cc.Subpaths, vars, "subpaths"); err != nil {
		return nil, err
	}
	if out.Env, err = expandListField(cc.Env, vars, "env"); err != nil {
		return nil, err
	}
	if out.Volumes, err = expandListField(cc.Volumes, vars, "volumes"); err != nil {
		return nil, err
	}
	if out.PostStartCommands, err = expandListField(cc.PostStartCommands, vars, "post_start_commands"); err != nil {
		return nil, err
	}
	if out.RunArgs, err = expandListField(cc.RunArgs, vars, "run_args"); err != nil {
		return nil, err
	}
	if bc, ok := cc.Build.Get(); ok && bc != nil {
		expandedBuild := *bc
		if expandedBuild.Dockerfile, err = expandStringField(bc.Dockerfile, vars, "build.dockerfile"); err != nil {
			return nil, err
		}
		if expandedBuild.DockerfileContent, err = expandStringField(bc.DockerfileContent, vars, "build.dockerfile_content"); err != nil {
			return nil, err
		}
		if expandedBuild.Context, err = expandStringField(bc.Context, vars, "build.context"); err != nil {
			return nil, err
		}
		if expandedBuild.Tag, err = expandStringField(bc.Tag, vars, "build.tag"); err != nil {
			return nil, err
		}
		out.Build = config.Of(&expandedBuild)
	}

	return &out, nil
}

func expandStringField(v config.Value[string], vars *Vars, field string) (config.Value[string], error) {
	s, ok := v.Get()
	if !ok {
		return v, nil
	}
	expanded, err := ExpandString(s, vars, field)
	if err != nil {
		return config.Value[string]{}, err
	}
	return config.Of(expanded), nil
}

func expandListField(v config.Value[[]string], vars *Vars, field string) (config.Value[[]string], error) {
	list, ok := v.Get()
	if !ok {
		return v, nil
	}
	expanded, err := ExpandList(list, vars, field)
	if err != nil {
		return config.Value[[]string]{}, err
	}
	return config.Of(expanded), nil
}
