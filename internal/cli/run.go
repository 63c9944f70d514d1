package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ctenv/ctenv/internal/common"
	"github.com/ctenv/ctenv/internal/entrypoint"
	"github.com/ctenv/ctenv/internal/imagebuild"
	"github.com/ctenv/ctenv/internal/runtime"
	"github.com/ctenv/ctenv/internal/ui"
)

func newRunCommand() *cobra.Command {
	f := &containerFlags{}
	cmd := &cobra.Command{
		Use:   "run [flags] [CONTAINER_NAME] [-- COMMAND...]",
		Short: "Run a command inside a container as the invoking host user",
		RunE: func(cmd *cobra.Command, args []string) error {
			containerName, command := splitPositional(cmd, args)
			return runInvocation(cmd, f, containerName, command)
		},
	}
	registerContainerFlags(cmd, f)
	return cmd
}

// splitPositional separates the optional CONTAINER_NAME from the
// "-- COMMAND..." tail, per the CLI surface's `[CONTAINER_NAME] [--
// COMMAND…]` grammar.
func splitPositional(cmd *cobra.Command, args []string) (containerName, command string) {
	dash := cmd.ArgsLenAtDash()
	if dash == -1 {
		if len(args) > 0 {
			containerName = args[0]
		}
		return containerName, ""
	}
	if dash > 0 {
		containerName = args[0]
	}
	tail := args[dash:]
	quoted := make([]string, len(tail))
	for i, a := range tail {
		quoted[i] = common.ShellQuote(a)
	}
	return containerName, strings.Join(quoted, " ")
}

func runInvocation(cmd *cobra.Command, f *containerFlags, containerName, command string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	result, err := runPipeline(containerName, command, f, cmd, cwd)
	if err != nil {
		return err
	}
	s := result.Spec

	runtimeBin, err := runtime.ResolveBinary(s.Runtime)
	if err != nil {
		return err
	}

	if s.Build != nil {
		tag, err := imagebuild.Build(runtimeBin, s.Build, f.dryRun)
		if err != nil {
			return err
		}
		s.Image = tag
	}

	script, err := entrypoint.Generate(s)
	if err != nil {
		return err
	}

	exitCode, err := runtime.Run(s, runtimeBin, script, f.dryRun)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	ui.Verbose("container %s exited 0", s.ContainerName)
	return nil
}
