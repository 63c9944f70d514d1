// Package cli wires the cobra command tree: the root command's global
// output flags, and the run/build/config subcommands that drive the
// container invocation pipeline.
package cli

import (
	"github.com/spf13/cobra"

	cerrors "github.com/ctenv/ctenv/internal/errors"
	"github.com/ctenv/ctenv/internal/ui"
	"github.com/ctenv/ctenv/internal/version"
)

var (
	verboseCount int
	quiet        bool
)

// NewRootCommand builds the root cobra command with every subcommand
// attached, ready for Execute().
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ctenv",
		Short:         "Run a command inside a container as the invoking host user",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbosity := ui.VerbosityNormal
			switch {
			case quiet:
				verbosity = ui.VerbosityQuiet
			case verboseCount > 0:
				verbosity = ui.VerbosityVerbose
			}
			ui.Configure(ui.Config{Verbosity: verbosity})
			return nil
		},
	}

	root.PersistentFlags().CountVarP(&verboseCount, "verbose", "v", "increase output verbosity")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential tool output")

	root.AddCommand(newRunCommand())
	root.AddCommand(newBuildCommand())
	root.AddCommand(newConfigCommand())

	return root
}

// Execute runs the root command and maps the result to a process exit
// code: 0 on success, the runtime child's own exit code when run already
// called os.Exit with it, 1 for a pipeline (config/template/spec/build)
// error, 2 for a cobra argument-parsing error.
func Execute() int {
	root := NewRootCommand()
	err := root.Execute()
	if err == nil {
		return 0
	}
	if ce, ok := cerrors.As(err); ok {
		ui.Error("%s", ce.Report())
		return cerrors.ExitCode(ce)
	}
	ui.Error("%s", err.Error())
	return 2
}
