package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctenv/ctenv/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect effective configuration",
	}
	cmd.AddCommand(newConfigShowCommand())
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var explain bool
	f := &containerFlags{}
	cmd := &cobra.Command{
		Use:   "show [CONTAINER_NAME]",
		Short: "Print the effective resolved configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var containerName string
			if len(args) > 0 {
				containerName = args[0]
			}
			return showConfig(cmd, f, containerName, explain)
		},
	}
	registerContainerFlags(cmd, f)
	cmd.Flags().BoolVar(&explain, "explain", false, "show which layer set each field")
	return cmd
}

func showConfig(cmd *cobra.Command, f *containerFlags, containerName string, explain bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	result, err := runPipeline(containerName, "", f, cmd, cwd)
	if err != nil {
		return err
	}

	printField("image", result.Merge.Config.Image, result.Merge.Provenance, explain)
	printField("command", result.Merge.Config.Command, result.Merge.Provenance, explain)
	printField("project_dir", result.Merge.Config.ProjectDir, result.Merge.Provenance, explain)
	printField("project_target", result.Merge.Config.ProjectTarget, result.Merge.Provenance, explain)
	printField("auto_project_mount", result.Merge.Config.AutoProjectMount, result.Merge.Provenance, explain)
	printField("subpaths", result.Merge.Config.Subpaths, result.Merge.Provenance, explain)
	printField("workdir", result.Merge.Config.Workdir, result.Merge.Provenance, explain)
	printField("gosu_path", result.Merge.Config.GosuPath, result.Merge.Provenance, explain)
	printField("container_name", result.Merge.Config.ContainerName, result.Merge.Provenance, explain)
	printField("tty", result.Merge.Config.TTY, result.Merge.Provenance, explain)
	printField("sudo", result.Merge.Config.Sudo, result.Merge.Provenance, explain)
	printField("network", result.Merge.Config.Network, result.Merge.Provenance, explain)
	printField("platform", result.Merge.Config.Platform, result.Merge.Provenance, explain)
	printField("ulimits", result.Merge.Config.Ulimits, result.Merge.Provenance, explain)
	printField("env", result.Merge.Config.Env, result.Merge.Provenance, explain)
	printField("volumes", result.Merge.Config.Volumes, result.Merge.Provenance, explain)
	printField("post_start_commands", result.Merge.Config.PostStartCommands, result.Merge.Provenance, explain)
	printField("run_args", result.Merge.Config.RunArgs, result.Merge.Provenance, explain)
	printField("runtime", result.Merge.Config.Runtime, result.Merge.Provenance, explain)
	printField("default", result.Merge.Config.Default, result.Merge.Provenance, explain)

	return nil
}

func printField[T any](name string, v config.Value[T], prov config.Provenance, explain bool) {
	val, ok := v.Get()
	if !ok {
		return // unset fields are elided by default, per the CLI surface contract
	}
	if explain {
		fmt.Printf("%-20s %v  (%s)\n", name, val, prov[name])
	} else {
		fmt.Printf("%-20s %v\n", name, val)
	}
}
