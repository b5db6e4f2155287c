package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mattsolo1/svpipe/internal/builder"
)

var configCmd = &cobra.Command{
	Use:   "config [library-dirs...]",
	Short: "Write a starter pipeline configuration",
	Long: `Walk one or more directories for BAM files and write a starter
PipelineConfig with a default memory and queue shared by every stage.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConfig,
}

var (
	configWrite     string
	configScheduler string
	configQueue     string
	configMemoryMB  int
)

// GetConfigCommand returns the config command with its flags configured.
func GetConfigCommand() *cobra.Command {
	configCmd.Flags().StringVarP(&configWrite, "write", "w", "config.ini", "Path to write the starter config")
	configCmd.Flags().StringVar(&configScheduler, "scheduler", "SLURM", "Scheduler backend: SLURM, SGE, or TORQUE")
	configCmd.Flags().StringVar(&configQueue, "queue", "", "Default scheduler queue")
	configCmd.Flags().IntVar(&configMemoryMB, "memory-mb", 4000, "Default per-stage memory in MB")
	return configCmd
}

// ConfigCmd holds the parameters for the config command.
type ConfigCmd struct {
	LibraryDirs []string
	Write       string
	Output      string
	Scheduler   string
	Queue       string
	MemoryMB    int
}

// RunConfig discovers libraries under c.LibraryDirs and writes a starter
// config file to c.Write.
func RunConfig(c *ConfigCmd) error {
	hints, err := builder.DiscoverLibraries(c.LibraryDirs)
	if err != nil {
		return err
	}
	return builder.WriteStarterConfig(c.Write, c.Output, c.Scheduler, c.Queue, c.MemoryMB, hints)
}

func runConfig(cmd *cobra.Command, args []string) error {
	return RunConfig(&ConfigCmd{
		LibraryDirs: args,
		Write:       configWrite,
		Output:      rootOutput,
		Scheduler:   configScheduler,
		Queue:       configQueue,
		MemoryMB:    configMemoryMB,
	})
}
