package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/svpipe/internal/builder"
	"github.com/mattsolo1/svpipe/internal/errs"
	"github.com/mattsolo1/svpipe/internal/exec"
	"github.com/mattsolo1/svpipe/internal/manifest"
)

var setupCmd = &cobra.Command{
	Use:     "setup",
	Aliases: []string{"pipeline"},
	Short:   "Build the per-library pipeline and emit the build manifest",
	Long: `Parse a pipeline configuration, resolve input conversions, lay out
per-library directories, emit scheduler scripts, build the job DAG, and
write build.cfg. Does not submit anything to the scheduler.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

var (
	setupConfigPath string
	setupDry        bool
)

// GetSetupCommand returns the setup command with its flags configured.
func GetSetupCommand() *cobra.Command {
	setupCmd.Flags().StringVarP(&setupConfigPath, "config", "c", "", "Path to the pipeline config file (required)")
	setupCmd.Flags().BoolVar(&setupDry, "dry", false, "Write N=1 task placeholders without inspecting the cluster output directory (without --dry, N=1 is also used when no cluster outputs are found)")
	_ = setupCmd.MarkFlagRequired("config")
	return setupCmd
}

// SetupCmd holds the parameters for the setup command.
type SetupCmd struct {
	ConfigPath        string
	OutputOverride    string
	SchedulerOverride string
	Dry               bool
}

// RunSetup parses the pipeline config at c.ConfigPath, runs the Builder,
// and writes the resulting manifest to <output>/build.cfg.
func RunSetup(c *SetupCmd) error {
	data, err := os.ReadFile(c.ConfigPath)
	if err != nil {
		return errs.Wrap(errs.UserInput, err, "reading config file %s", c.ConfigPath)
	}

	cfg, err := builder.ParseConfig(string(data))
	if err != nil {
		return err
	}
	if c.OutputOverride != "" {
		cfg.Output = c.OutputOverride
	}
	if c.SchedulerOverride != "" {
		cfg.Scheduler = c.SchedulerOverride
	}

	m, err := builder.Setup(builder.SetupOptions{
		Config: cfg,
		Dry:    c.Dry,
		Exec:   &exec.Real{},
	})
	if err != nil {
		return err
	}

	return manifest.Write(filepath.Join(cfg.Output, builder.ManifestFile), m)
}

func runSetup(cmd *cobra.Command, args []string) error {
	schedulerOverride := ""
	if cmd.Flags().Changed("scheduler") {
		schedulerOverride = rootScheduler
	}
	return RunSetup(&SetupCmd{
		ConfigPath:        setupConfigPath,
		OutputOverride:    rootOutput,
		SchedulerOverride: schedulerOverride,
		Dry:               setupDry,
	})
}
