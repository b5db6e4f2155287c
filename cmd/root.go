// Package cmd implements the svpipe cobra command tree: config, setup
// (alias pipeline), submit, check.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mattsolo1/svpipe/internal/logging"
)

var (
	rootOutput    string
	rootScheduler string
	rootVerbose   bool
)

// GetRootCommand builds the root "svpipe" command and registers every
// subcommand, one Get*Command constructor per subcommand family wired
// together by main.go.
func GetRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "svpipe",
		Short: "Structural-variant pipeline orchestration core",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetVerbose(rootVerbose)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootOutput, "output", "", "Pipeline output root directory")
	root.PersistentFlags().StringVar(&rootScheduler, "scheduler", "SLURM", "Scheduler backend: SLURM, SGE, or TORQUE")
	root.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(GetConfigCommand())
	root.AddCommand(GetSetupCommand())
	root.AddCommand(GetSubmitCommand())
	root.AddCommand(GetCheckCommand())

	return root
}
