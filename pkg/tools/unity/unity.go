// Package unity wraps the offline-provisioned engine editor used to export
// engine projects as android packages.
package unity

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"

	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/exec"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/osutil"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools"
)

var _ tools.ExternalTool = (*Cli)(nil)

type Cli struct {
	commandRunner exec.CommandRunner
	editorRoot    string
}

func NewCli(commandRunner exec.CommandRunner, editorRoot string) *Cli {
	return &Cli{
		commandRunner: commandRunner,
		editorRoot:    editorRoot,
	}
}

func (cli *Cli) Name() string {
	return "unity editor"
}

func (cli *Cli) CheckInstalled(_ context.Context) error {
	if !osutil.FileExists(cli.binaryPath()) {
		return fmt.Errorf("unity editor not found at %s", cli.binaryPath())
	}
	return nil
}

func (cli *Cli) binaryPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(cli.editorRoot, "Editor", "Unity.exe")
	case "darwin":
		return filepath.Join(cli.editorRoot, "Unity.app", "Contents", "MacOS", "Unity")
	default:
		return filepath.Join(cli.editorRoot, "Editor", "Unity")
	}
}

// Export runs the editor in batch mode against the project, invoking the build
// entry point that writes the APK to outputPath. The editor streams its log to
// stdout so progress is forwarded as it arrives.
func (cli *Cli) Export(
	ctx context.Context,
	projectDir string,
	outputPath string,
	env []string,
	logOutput io.Writer,
) error {
	runArgs := exec.NewRunArgs(cli.binaryPath(),
		"-batchmode",
		"-quit",
		"-nographics",
		"-projectPath", projectDir,
		"-buildTarget", "Android",
		"-executeMethod", "ApkExport.Perform",
		"-logFile", "-",
		"-apkOutput", outputPath,
	).
		WithEnv(env).
		WithStdout(logOutput).
		WithStderr(logOutput)

	if _, err := cli.commandRunner.Run(ctx, runArgs); err != nil {
		return fmt.Errorf("engine export of %s: %w", projectDir, err)
	}

	return nil
}
