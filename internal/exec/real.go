package exec

import (
	"fmt"
	"os/exec"
	"strings"
)

// Real implements CommandExecutor using the actual os/exec package. This
// is the production implementation that executes real scheduler binaries.
type Real struct{}

// LookPath searches for an executable named file in the directories
// named by the PATH environment variable.
func (r *Real) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Output runs the command with the given name and arguments, returning
// captured stdout. Stderr is included in the wrapped error on failure so
// the scheduler-interaction error can report the full command context.
func (r *Real) Output(name string, arg ...string) (string, error) {
	cmd := exec.Command(name, arg...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", &Error{
			Command: fmt.Sprintf("%s %s", name, strings.Join(arg, " ")),
			Output:  stderr.String(),
			Err:     err,
		}
	}
	return string(out), nil
}

// Shell runs a command line through /bin/sh -c so that the joined
// command line (the SGE adapter's qsub invocation in particular) is
// parsed by the shell the way a hand-typed qsub invocation would be.
func (r *Real) Shell(commandLine string) (string, error) {
	cmd := exec.Command("/bin/sh", "-c", commandLine)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", &Error{
			Command: commandLine,
			Output:  stderr.String(),
			Err:     err,
		}
	}
	return string(out), nil
}
