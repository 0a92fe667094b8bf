// Package gradle wraps the offline-provisioned Gradle distribution used to
// drive Android builds.
package gradle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"runtime"
	"time"

	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/exec"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/osutil"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools"
	"github.com/blang/semver/v4"
	"github.com/sethvargo/go-retry"
)

// connectivityProbeHost is resolved to decide whether gradle may attempt
// network-aware execution. dl.google.com backs the google() repository every
// Android build touches.
const connectivityProbeHost = "dl.google.com"

const probeTimeout = 3 * time.Second

// ConnectivityProbe reports whether the package registry appears reachable.
type ConnectivityProbe func(ctx context.Context) bool

var _ tools.ExternalTool = (*Cli)(nil)

type Cli struct {
	commandRunner exec.CommandRunner
	gradleHome    string
	userHome      string
	probe         ConnectivityProbe
}

func NewCli(commandRunner exec.CommandRunner, gradleHome string, userHome string) *Cli {
	return &Cli{
		commandRunner: commandRunner,
		gradleHome:    gradleHome,
		userHome:      userHome,
		probe:         dnsProbe,
	}
}

// NewCliWithProbe creates a Cli with a custom connectivity probe. Used by tests
// and by callers that want to force offline execution.
func NewCliWithProbe(commandRunner exec.CommandRunner, gradleHome string, userHome string, probe ConnectivityProbe) *Cli {
	cli := NewCli(commandRunner, gradleHome, userHome)
	cli.probe = probe
	return cli
}

func (cli *Cli) Name() string {
	return "gradle"
}

// minimumVersion is the oldest gradle distribution the generated projects
// build with; the Android Gradle Plugin they pin refuses anything older.
var minimumVersion = semver.MustParse("7.0.0")

func (cli *Cli) versionInfo() tools.VersionInfo {
	return tools.VersionInfo{
		MinimumVersion: minimumVersion,
		UpdateCommand:  "Provision a newer",
	}
}

func (cli *Cli) CheckInstalled(ctx context.Context) error {
	if !osutil.FileExists(cli.binaryPath()) {
		return fmt.Errorf("gradle not found at %s", cli.binaryPath())
	}

	output, err := tools.ExecuteCommand(ctx, cli.commandRunner, cli.binaryPath(), "--version")
	if err != nil {
		return fmt.Errorf("checking gradle version: %w", err)
	}

	version, err := tools.ExtractVersion(output)
	if err != nil {
		return fmt.Errorf("checking gradle version: %w", err)
	}

	if version.LT(minimumVersion) {
		return &tools.ErrSemver{ToolName: cli.Name(), VersionInfo: cli.versionInfo()}
	}

	return nil
}

func (cli *Cli) binaryPath() string {
	name := "gradle"
	if runtime.GOOS == "windows" {
		name = "gradle.bat"
	}
	return filepath.Join(cli.gradleHome, "bin", name)
}

// Run executes the given gradle tasks in projectDir. Network-aware execution is
// attempted only when the connectivity probe succeeds; otherwise gradle is
// forced into cache-only mode with --offline. When a network-aware run fails,
// one offline retry is attempted before the failure surfaces, which tolerates
// transient registry failures without pushing users into full offline mode.
func (cli *Cli) Run(ctx context.Context, projectDir string, env []string, logOutput io.Writer, tasks ...string) error {
	online := cli.probe(ctx)

	attempt := 0
	return retry.Do(ctx, retry.WithMaxRetries(1, retry.NewConstant(1*time.Second)), func(ctx context.Context) error {
		attempt++
		offline := !online || attempt > 1

		args := append([]string{}, tasks...)
		args = append(args, "--no-daemon", "--console=plain", "--gradle-user-home", cli.userHome)
		if offline {
			args = append(args, "--offline")
		}

		runArgs := exec.NewRunArgs(cli.binaryPath(), args...).
			WithCwd(projectDir).
			WithEnv(env).
			WithStdout(logOutput).
			WithStderr(logOutput)

		_, err := cli.commandRunner.Run(ctx, runArgs)
		if err != nil {
			var exitErr *exec.ExitError
			if !offline && errors.As(err, &exitErr) {
				return retry.RetryableError(fmt.Errorf("gradle failed under network-aware mode: %w", err))
			}
			return err
		}

		return nil
	})
}

func dnsProbe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	resolver := net.Resolver{}
	_, err := resolver.LookupHost(probeCtx, connectivityProbeHost)
	return err == nil
}
