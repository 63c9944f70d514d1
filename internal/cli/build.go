package cli

import (
	"os"

	"github.com/spf13/cobra"

	cerrors "github.com/ctenv/ctenv/internal/errors"
	"github.com/ctenv/ctenv/internal/imagebuild"
	"github.com/ctenv/ctenv/internal/runtime"
	"github.com/ctenv/ctenv/internal/ui"
)

func newBuildCommand() *cobra.Command {
	f := &containerFlags{}
	cmd := &cobra.Command{
		Use:   "build [flags] CONTAINER_NAME",
		Short: "Build the configured image without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return buildInvocation(cmd, f, args[0])
		},
	}
	registerContainerFlags(cmd, f)
	return cmd
}

func buildInvocation(cmd *cobra.Command, f *containerFlags, containerName string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	result, err := runPipeline(containerName, "", f, cmd, cwd)
	if err != nil {
		return err
	}
	s := result.Spec

	if s.Build == nil {
		return cerrors.Newf(cerrors.KindPath, "container %q has no build section configured", containerName).
			With("container", containerName)
	}

	runtimeBin, err := runtime.ResolveBinary(s.Runtime)
	if err != nil {
		return err
	}

	tag, err := imagebuild.Build(runtimeBin, s.Build, f.dryRun)
	if err != nil {
		return err
	}
	ui.Info("built image %s", tag)
	return nil
}
