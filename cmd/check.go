package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mattsolo1/svpipe/internal/checker"
	"github.com/mattsolo1/svpipe/internal/errs"
	"github.com/mattsolo1/svpipe/internal/report"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report completion status of a pipeline output root",
	Long: `Walk the output root independent of the scheduler, classify every
library/task by completion stamps and log files, and print a report.
Exits 3 if the pipeline is incomplete or failed.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var (
	checkSkipValidation bool
	checkSkipPairing    bool
)

// GetCheckCommand returns the check command with its flags configured.
func GetCheckCommand() *cobra.Command {
	checkCmd.Flags().BoolVar(&checkSkipValidation, "skip-validation", false, "Skip the validation stage when checking")
	checkCmd.Flags().BoolVar(&checkSkipPairing, "skip-pairing", false, "Skip pairing/summary when checking")
	return checkCmd
}

// CheckCmd holds the parameters for the check command.
type CheckCmd struct {
	Output         string
	SkipValidation bool
	SkipPairing    bool
}

// RunCheck runs the completion checker over c.Output and prints its
// report, returning a *errs.Error with Kind Completion if the pipeline
// is not fully complete (mapped to exit code 3 by main.go).
func RunCheck(c *CheckCmd) error {
	if c.Output == "" {
		return errs.New(errs.UserInput, "check requires --output")
	}

	r, err := checker.Check(checker.CheckOptions{
		OutputRoot:     c.Output,
		SkipValidation: c.SkipValidation,
		SkipPairing:    c.SkipPairing,
	})
	if err != nil {
		return err
	}

	if renderErr := report.Write(r); renderErr != nil {
		return renderErr
	}

	if !r.Success {
		return errs.New(errs.Completion, "pipeline at %s is incomplete", c.Output)
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	return RunCheck(&CheckCmd{
		Output:         rootOutput,
		SkipValidation: checkSkipValidation,
		SkipPairing:    checkSkipPairing,
	})
}
