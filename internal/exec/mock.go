package exec

import "strings"

// Mock is a mock implementation of CommandExecutor for testing. It
// records all commands that would be executed without actually running
// them, returning canned responses.
type Mock struct {
	// Commands records every invocation, one entry per Output/Shell call.
	Commands []string

	// LookPathFunc allows custom behavior for LookPath in tests.
	LookPathFunc func(file string) (string, error)

	// OutputFunc allows custom behavior for Output in tests. If nil,
	// Output returns "" with no error.
	OutputFunc func(name string, arg ...string) (string, error)

	// ShellFunc allows custom behavior for Shell in tests. If nil, Shell
	// returns "" with no error.
	ShellFunc func(commandLine string) (string, error)
}

// LookPath implements CommandExecutor for testing.
func (m *Mock) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	return "/usr/bin/" + file, nil
}

// Output implements CommandExecutor for testing, recording the command.
func (m *Mock) Output(name string, arg ...string) (string, error) {
	cmdStr := name
	if len(arg) > 0 {
		cmdStr = name + " " + strings.Join(arg, " ")
	}
	m.Commands = append(m.Commands, cmdStr)

	if m.OutputFunc != nil {
		return m.OutputFunc(name, arg...)
	}
	return "", nil
}

// Shell implements CommandExecutor for testing, recording the command.
func (m *Mock) Shell(commandLine string) (string, error) {
	m.Commands = append(m.Commands, commandLine)
	if m.ShellFunc != nil {
		return m.ShellFunc(commandLine)
	}
	return "", nil
}
