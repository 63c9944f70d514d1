package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ctenv/ctenv/internal/config"
	cerrors "github.com/ctenv/ctenv/internal/errors"
	"github.com/ctenv/ctenv/internal/runtimectx"
	"github.com/ctenv/ctenv/internal/spec"
	"github.com/ctenv/ctenv/internal/template"
	"github.com/ctenv/ctenv/internal/ui"
	"github.com/ctenv/ctenv/internal/util"
)

const configFileName = ".ctenv.toml"

// pipelineResult is everything a subcommand needs after the config/template/
// resolver stages have run: the resolved spec plus enough of the
// intermediate state for `config show --explain` to report provenance.
type pipelineResult struct {
	Context *runtimectx.Context
	Merge   config.MergeResult
	Spec    *spec.ContainerSpec
}

// runPipeline executes runtime-context capture, config discovery and
// loading, merging, template expansion, and spec resolution — every stage
// up to (but not including) the entrypoint generator, image build, and
// runtime driver, which the run/build subcommands invoke themselves since
// config show needs none of them.
func runPipeline(containerName, command string, f *containerFlags, cmd *cobra.Command, cwd string) (*pipelineResult, error) {
	rc, err := runtimectx.Capture()
	if err != nil {
		return nil, err
	}

	userFilePath := filepath.Join(rc.UserHome, configFileName)
	var userFile, projectFile *config.LoadedFile

	if util.IsFile(userFilePath) {
		userFile, err = config.LoadFile(userFilePath)
		if err != nil {
			return nil, err
		}
	}

	projectFilePath := util.WalkUpForFile(rc.Cwd, configFileName, rc.UserHome)
	if projectFilePath != "" {
		projectFile, err = config.LoadFile(projectFilePath)
		if err != nil {
			return nil, err
		}
		rc.ProjectDir = filepath.Dir(projectFilePath)
	}

	selectedName, selectedConfig, err := selectContainer(userFile, projectFile, containerName)
	if err != nil {
		return nil, err
	}

	layers := []config.Layer{{Label: "defaults", Config: config.Defaults()}}
	if userFile != nil {
		layers = append(layers, config.Layer{Label: "user-scope", Config: userFile.Defaults})
	}
	if projectFile != nil {
		layers = append(layers, config.Layer{Label: "project-scope", Config: projectFile.Defaults})
	}
	if selectedConfig != nil {
		layers = append(layers, config.Layer{Label: "container:" + selectedName, Config: selectedConfig})
	}
	cliLayer := f.toLayer(cmd, cwd)
	if command != "" {
		cliLayer.Command = config.Of(command)
	}
	layers = append(layers, config.Layer{Label: "cli", Config: cliLayer})

	merged := config.Merge(layers...)

	vars := template.VarsFor(merged.Config, rc)
	expanded, err := template.Expand(merged.Config, vars)
	if err != nil {
		return nil, err
	}

	resolved, err := spec.Resolve(expanded, rc, vars)
	if err != nil {
		return nil, err
	}

	if ui.IsVerbose() {
		ui.Logger().Debug("resolved container", "name", resolved.ContainerName, "runtime", resolved.Runtime)
	}

	return &pipelineResult{Context: rc, Merge: merged, Spec: resolved}, nil
}

// selectContainer implements the name-shadowing rule: a container name
// defined in both scopes resolves to the project-scope record only, never
// a merge of the two, because the effective map simply overwrites the
// user-scope entry.
func selectContainer(userFile, projectFile *config.LoadedFile, explicitName string) (string, *config.ContainerConfig, error) {
	effective := make(map[string]*config.ContainerConfig)
	if userFile != nil {
		for name, cc := range userFile.Containers {
			effective[name] = cc
		}
	}
	if projectFile != nil {
		for name, cc := range projectFile.Containers {
			effective[name] = cc
		}
	}

	if explicitName != "" {
		cc, ok := effective[explicitName]
		if !ok {
			return "", nil, cerrors.Newf(cerrors.KindUnknownContainer, "no container named %q", explicitName).
				With("container", explicitName)
		}
		return explicitName, cc, nil
	}

	var defaultName string
	var defaultConfig *config.ContainerConfig
	count := 0
	for name, cc := range effective {
		if b, ok := cc.Default.Get(); ok && b {
			count++
			defaultName, defaultConfig = name, cc
		}
	}
	if count > 1 {
		return "", nil, cerrors.New(cerrors.KindAmbiguousDefault, "multiple containers declare default = true")
	}
	if count == 1 {
		return defaultName, defaultConfig, nil
	}
	return "", nil, nil
}
