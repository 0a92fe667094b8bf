package exec

import (
	"fmt"
	"os/exec"
)

// RunResult is the result of running a command.
type RunResult struct {
	// The exit code of the command.
	ExitCode int
	// The stdout output captured from running the command.
	Stdout string
	// The stderr output captured from running the command.
	Stderr string
}

func NewRunResult(code int, stdout, stderr string) RunResult {
	return RunResult{
		ExitCode: code,
		Stdout:   stdout,
		Stderr:   stderr,
	}
}

// ExitError is the error returned when a command unsuccessfully exits.
type ExitError struct {
	// The path or name of the command being invoked.
	Cmd string
	// The exit code of the command.
	ExitCode int

	stdOut string
	stdErr string

	// The underlying exec.ExitError, if any.
	err *exec.ExitError
}

func NewExitError(exitErr *exec.ExitError, cmd string, stdOut string, stdErr string) error {
	return &ExitError{
		ExitCode: exitErr.ExitCode(),
		Cmd:      cmd,
		err:      exitErr,
		stdOut:   stdOut,
		stdErr:   stdErr,
	}
}

// Error augments the underlying exec.ExitError's Error with the stdout and stderr output of the command, if available.
func (e *ExitError) Error() string {
	var errorPrefix string

	// Prefer "exit code" over "exit status" in the message, to make failures easier to find in logs.
	if e.err == nil || e.err.Exited() {
		errorPrefix = fmt.Sprintf("%s: exit code: %d", e.Cmd, e.ExitCode)
	} else {
		errorPrefix = fmt.Sprintf("%s: %s", e.Cmd, e.err.Error())
	}

	if e.stdOut == "" && e.stdErr == "" {
		return errorPrefix
	}

	return fmt.Sprintf("%s, stdout: %s, stderr: %s", errorPrefix, e.stdOut, e.stdErr)
}

// StdoutOutput returns the stdout output captured from the command.
func (e *ExitError) StdoutOutput() string {
	return e.stdOut
}

// StderrOutput returns the stderr output captured from the command.
func (e *ExitError) StderrOutput() string {
	return e.stdErr
}

// NewTestExitError creates an ExitError suitable for unit tests
// where constructing an os/exec.ExitError is impractical.
func NewTestExitError(cmd string, exitCode int, stderr string) *ExitError {
	return &ExitError{
		Cmd:      cmd,
		ExitCode: exitCode,
		stdErr:   stderr,
	}
}
