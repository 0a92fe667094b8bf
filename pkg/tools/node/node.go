// Package node wraps the offline-provisioned Node.js runtime, npm and npx.
package node

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
	nodeRoot      string
	cacheDir      string
}

func NewCli(commandRunner exec.CommandRunner, nodeRoot string, cacheDir string) *Cli {
	return &Cli{
		commandRunner: commandRunner,
		nodeRoot:      nodeRoot,
		cacheDir:      cacheDir,
	}
}

func (cli *Cli) Name() string {
	return "node"
}

func (cli *Cli) CheckInstalled(_ context.Context) error {
	if !osutil.FileExists(cli.binPath("node")) {
		return fmt.Errorf("node not found at %s", cli.binPath("node"))
	}
	return nil
}

func (cli *Cli) binPath(name string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(cli.nodeRoot, name+".cmd")
	}
	return filepath.Join(cli.nodeRoot, "bin", name)
}

// Install restores the project's npm dependencies, preferring the shared
// offline cache.
func (cli *Cli) Install(ctx context.Context, projectDir string, env []string, logOutput io.Writer) error {
	runArgs := exec.NewRunArgs(cli.binPath("npm"),
		"install", "--no-audit", "--no-fund", "--prefer-offline", "--cache", cli.cacheDir,
	).
		WithCwd(projectDir).
		WithEnv(env).
		WithStdout(logOutput).
		WithStderr(logOutput)

	if _, err := cli.commandRunner.Run(ctx, runArgs); err != nil {
		return fmt.Errorf("npm install in %s: %w", projectDir, err)
	}

	return nil
}

// ExpoPrebuild generates the android native subproject for a managed-workflow
// Expo project, converting it in place into one with an android directory.
func (cli *Cli) ExpoPrebuild(ctx context.Context, projectDir string, env []string, logOutput io.Writer) error {
	runArgs := exec.NewRunArgs(cli.binPath("npx"),
		"expo", "prebuild", "--platform", "android", "--no-install",
	).
		WithCwd(projectDir).
		WithEnv(env).
		WithStdout(logOutput).
		WithStderr(logOutput)

	if _, err := cli.commandRunner.Run(ctx, runArgs); err != nil {
		return fmt.Errorf("expo prebuild in %s: %w", projectDir, err)
	}

	return nil
}
