// Package exec provides the subprocess seam the scheduler adapter calls
// through, so tests can substitute canned responses instead of invoking
// real scheduler binaries. Output lets callers capture and parse stdout,
// which a plain error-only Execute cannot support.
package exec

// CommandExecutor defines an interface for running external commands.
type CommandExecutor interface {
	// LookPath searches for an executable named file in the directories
	// named by the PATH environment variable.
	LookPath(file string) (string, error)

	// Output runs the command with the given name and arguments, waits
	// for it to complete, and returns its captured standard output.
	Output(name string, arg ...string) (string, error)

	// Shell runs a command line through the host shell and returns its
	// captured standard output. The SGE adapter joins its argument list
	// into one command line and submits through Shell; the SLURM and
	// Torque adapters use Output's argv form.
	Shell(commandLine string) (string, error)
}

// Error wraps an execution failure with the command and its combined
// stdout+stderr output, so callers can report the full context per the
// scheduler-interaction error kind.
type Error struct {
	Command string
	Output  string
	Err     error
}

func (e *Error) Error() string {
	return e.Command + ": " + e.Err.Error() + ": " + e.Output
}

func (e *Error) Unwrap() error { return e.Err }
