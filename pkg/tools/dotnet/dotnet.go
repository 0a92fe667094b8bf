// Package dotnet wraps the offline-provisioned .NET SDK used for managed
// (MAUI) android builds.
package dotnet

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/exec"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/osutil"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools"
)

var _ tools.ExternalTool = (*Cli)(nil)

type Cli struct {
	commandRunner exec.CommandRunner
	dotnetRoot    string
}

func NewCli(commandRunner exec.CommandRunner, dotnetRoot string) *Cli {
	return &Cli{
		commandRunner: commandRunner,
		dotnetRoot:    dotnetRoot,
	}
}

func (cli *Cli) Name() string {
	return "dotnet"
}

func (cli *Cli) CheckInstalled(_ context.Context) error {
	if !osutil.FileExists(cli.binaryPath()) {
		return fmt.Errorf("dotnet not found at %s", cli.binaryPath())
	}
	return nil
}

func (cli *Cli) binaryPath() string {
	name := "dotnet"
	if runtime.GOOS == "windows" {
		name = "dotnet.exe"
	}
	return filepath.Join(cli.dotnetRoot, name)
}

// PublishAndroid publishes the project for the android target framework,
// producing an APK in outputDir. Per-build properties are passed as msbuild
// -p: arguments so the project file itself stays untouched.
func (cli *Cli) PublishAndroid(
	ctx context.Context,
	projectDir string,
	outputDir string,
	env []string,
	logOutput io.Writer,
	properties map[string]string,
) error {
	args := []string{
		"publish",
		"-f", "net8.0-android",
		"-c", "Release",
		"-o", outputDir,
		"-p:AndroidPackageFormat=apk",
	}

	for _, key := range sortedKeys(properties) {
		args = append(args, fmt.Sprintf("-p:%s=%s", key, properties[key]))
	}

	runArgs := exec.NewRunArgs(cli.binaryPath(), args...).
		WithCwd(projectDir).
		WithEnv(env).
		WithStdout(logOutput).
		WithStderr(logOutput)

	if _, err := cli.commandRunner.Run(ctx, runArgs); err != nil {
		return fmt.Errorf("dotnet publish in %s: %w", projectDir, err)
	}

	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
