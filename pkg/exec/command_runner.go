package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CommandRunner exposes the contract for executing console/shell commands for the specified runArgs.
// It is the sole primitive through which external toolchains are driven.
type CommandRunner interface {
	Run(ctx context.Context, args RunArgs) (RunResult, error)
}

// Creates a new default instance of the CommandRunner.
func NewCommandRunner() CommandRunner {
	return &commandRunner{}
}

// commandRunner is the default private implementation of the CommandRunner interface
// This implementation executes actual commands on the underlying console/shell
type commandRunner struct {
}

// Run runs the command specified in 'args'.
//
// Returns a RunResult that is the result of the command.
//   - Output written by the command to stdout/stderr is captured in the result. When args.Stdout or
//     args.Stderr are set, output is additionally streamed to those writers as it arrives.
//   - If the underlying command exits unsuccessfully, *ExitError is returned. Other possible errors would
//     likely be I/O errors or context cancellation.
//   - Cancelling ctx kills the running process; a hung toolchain does not hang the caller forever.
//
// NOTE: on Windows the command will automatically be run within a shell. This means .bat/.cmd
// file based commands should just work.
func (r *commandRunner) Run(ctx context.Context, args RunArgs) (RunResult, error) {
	cmd, err := newCmd(ctx, args)
	if err != nil {
		return RunResult{}, err
	}

	cmd.Dir = args.Cwd
	cmd.Env = appendEnv(args.Env)

	if args.StdIn != nil {
		cmd.Stdin = args.StdIn
	} else {
		cmd.Stdin = new(bytes.Buffer)
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if args.Stdout != nil {
		cmd.Stdout = io.MultiWriter(args.Stdout, &stdout)
	}

	if args.Stderr != nil {
		cmd.Stderr = io.MultiWriter(args.Stderr, &stderr)
	}

	logTitle := strings.Builder{}
	logBody := strings.Builder{}
	defer func() {
		logTitle.WriteString(logBody.String())
		log.Print(logTitle.String())
	}()

	// Redaction runs over the joined command line so flag/value rules can see
	// a flag and its value together even though they are separate arguments.
	logTitle.WriteString(fmt.Sprintf("Run exec: '%s %s' ",
		args.Cmd,
		redactSensitiveData(strings.Join(args.Args, " "), args.SensitiveData)))

	if args.Debug && len(args.Env) > 0 {
		logBody.WriteString("Additional env:\n")
		for _, kv := range args.Env {
			logBody.WriteString(fmt.Sprintf("   %s\n", redactSensitiveData(kv, args.SensitiveData)))
		}
	}

	err = cmd.Run()

	// ProcessState is nil when the command never started, e.g. the binary was not found.
	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	result := RunResult{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if args.Debug {
		logStdOut := strings.TrimSuffix(redactSensitiveData(stdout.String(), args.SensitiveData), "\n")
		if len(logStdOut) > 0 {
			logBody.WriteString(fmt.Sprintf(
				"-------------------------------------stdout-------------------------------------------\n%s\n",
				logStdOut))
		}
		logStdErr := strings.TrimSuffix(redactSensitiveData(stderr.String(), args.SensitiveData), "\n")
		if len(logStdErr) > 0 {
			logBody.WriteString(fmt.Sprintf(
				"-------------------------------------stderr-------------------------------------------\n%s\n",
				logStdErr))
		}
	}

	logTitle.WriteString(fmt.Sprintf(", exit code: %d\n", result.ExitCode))

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		err = NewExitError(exitErr, args.Cmd, result.Stdout, result.Stderr)
	}

	return result, err
}

func appendEnv(env []string) []string {
	if len(env) > 0 {
		return append(os.Environ(), env...)
	}

	return nil
}

// newCmd creates an exec.Cmd for the run args, optionally wrapped in a shell appropriate
// for windows or POSIX environments.
func newCmd(ctx context.Context, args RunArgs) (*exec.Cmd, error) {
	if args.Cmd == "" {
		return nil, errors.New("command must be provided")
	}

	// use the shell on Windows since most commands are actually just batch files wrapping
	// real commands. And even if they're not, this will work fine without having to do any
	// probing or checking.
	if !args.UseShell && runtime.GOOS != "windows" {
		return exec.CommandContext(ctx, args.Cmd, args.Args...), nil
	}

	var shellName string
	var shellCommandPrefix string
	var shellArgs []string

	if runtime.GOOS == "windows" {
		dir := os.Getenv("SYSTEMROOT")
		if dir == "" {
			return nil, errors.New("environment variable 'SYSTEMROOT' has no value")
		}

		shellName = filepath.Join(dir, "System32", "cmd.exe")
		shellCommandPrefix = "/c"
		shellArgs = append([]string{args.Cmd}, args.Args...)
	} else {
		shellName = filepath.Join("/", "bin", "sh")
		shellCommandPrefix = "-c"

		var cmdBuilder strings.Builder
		cmdBuilder.WriteString(args.Cmd)

		for i := range args.Args {
			cmdBuilder.WriteString(" \"$")
			fmt.Fprintf(&cmdBuilder, "%d", i)
			cmdBuilder.WriteString("\"")
		}

		shellArgs = append([]string{cmdBuilder.String()}, args.Args...)
	}

	allArgs := append([]string{shellCommandPrefix}, shellArgs...)

	return exec.CommandContext(ctx, shellName, allArgs...), nil
}
