package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mattsolo1/svpipe/internal/builder"
	"github.com/mattsolo1/svpipe/internal/errs"
	"github.com/mattsolo1/svpipe/internal/exec"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit unsubmitted jobs to the scheduler",
	Long: `Read the build manifest, submit every not-yet-submitted job in
dependency order, and rewrite the manifest after each submission.`,
	Args: cobra.NoArgs,
	RunE: runSubmit,
}

// GetSubmitCommand returns the submit command.
func GetSubmitCommand() *cobra.Command {
	return submitCmd
}

// SubmitCmd holds the parameters for the submit command.
type SubmitCmd struct {
	Output string
}

// RunSubmit submits every not-yet-submitted job under c.Output.
func RunSubmit(c *SubmitCmd) error {
	if c.Output == "" {
		return errs.New(errs.UserInput, "submit requires --output")
	}
	_, err := builder.Submit(builder.SubmitOptions{OutputRoot: c.Output, Exec: &exec.Real{}})
	return err
}

func runSubmit(cmd *cobra.Command, args []string) error {
	return RunSubmit(&SubmitCmd{Output: rootOutput})
}
