package exec

import (
	"io"
)

// RunArgs exposes the command, arguments and other options when running console/shell commands
type RunArgs struct {
	Cmd  string
	Args []string
	Cwd  string

	// Env is an environment variable overlay in KEY=VALUE form. The overlay is
	// appended to the current process environment for the child process only;
	// the process-wide environment is never mutated.
	Env []string

	// Stdout will receive a copy of the text written to stdout by the command
	// as it arrives, chunk by chunk.
	// NOTE: RunResult.Stdout will still contain the full stdout output.
	Stdout io.Writer

	// Stderr will receive a copy of the text written to stderr by the command
	// as it arrives, chunk by chunk.
	// NOTE: RunResult.Stderr will still contain the full stderr output.
	Stderr io.Writer

	// SensitiveData holds values (passwords, tokens) that are redacted from any
	// logged form of the command line.
	SensitiveData []string

	// Debug will `log.Printf` the command and its results after it completes.
	Debug bool

	// When set will run the command within a shell
	UseShell bool

	// When set will call the command with the specified StdIn
	StdIn io.Reader
}

// NewRunArgs creates a new instance with the specified cmd and args
func NewRunArgs(cmd string, args ...string) RunArgs {
	return RunArgs{
		Cmd:  cmd,
		Args: args,
	}
}

// Appends additional command params
func (b RunArgs) AppendParams(params ...string) RunArgs {
	b.Args = append(b.Args, params...)
	return b
}

// Updates the current working directory (cwd) for the command
func (b RunArgs) WithCwd(cwd string) RunArgs {
	b.Cwd = cwd
	return b
}

// Updates the environment variable overlay used for the command
func (b RunArgs) WithEnv(env []string) RunArgs {
	b.Env = env
	return b
}

// Updates the writer that receives streamed stdout output
func (b RunArgs) WithStdout(w io.Writer) RunArgs {
	b.Stdout = w
	return b
}

// Updates the writer that receives streamed stderr output
func (b RunArgs) WithStderr(w io.Writer) RunArgs {
	b.Stderr = w
	return b
}

// Updates the values redacted from logged command lines
func (b RunArgs) WithSensitiveData(values ...string) RunArgs {
	b.SensitiveData = append(b.SensitiveData, values...)
	return b
}

// Updates whether or not this will be run in a shell
func (b RunArgs) WithShell(useShell bool) RunArgs {
	b.UseShell = useShell
	return b
}

// Updates whether or not debug output will be written to default logger
func (b RunArgs) WithDebug(debug bool) RunArgs {
	b.Debug = debug
	return b
}

// Updates the stdin reader that will be used while invoking the command
func (b RunArgs) WithStdIn(stdIn io.Reader) RunArgs {
	b.StdIn = stdIn
	return b
}
