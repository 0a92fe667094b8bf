// Package androidsdk wraps the build-tools utilities of the offline-provisioned
// Android SDK: zipalign for artifact alignment and apksigner for signing.
package androidsdk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/exec"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools"
	"github.com/blang/semver/v4"
)

var _ tools.ExternalTool = (*Cli)(nil)

type Cli struct {
	commandRunner exec.CommandRunner
	sdkRoot       string
}

func NewCli(commandRunner exec.CommandRunner, sdkRoot string) *Cli {
	return &Cli{
		commandRunner: commandRunner,
		sdkRoot:       sdkRoot,
	}
}

func (cli *Cli) Name() string {
	return "android-sdk build-tools"
}

func (cli *Cli) CheckInstalled(_ context.Context) error {
	if _, err := cli.BuildToolsDir(); err != nil {
		return err
	}
	return nil
}

// BuildToolsDir locates the highest-versioned build-tools directory within the
// SDK root.
func (cli *Cli) BuildToolsDir() (string, error) {
	buildToolsRoot := filepath.Join(cli.sdkRoot, "build-tools")
	entries, err := os.ReadDir(buildToolsRoot)
	if err != nil {
		return "", fmt.Errorf("reading build-tools in %s: %w", cli.sdkRoot, err)
	}

	var best string
	var bestVersion semver.Version
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		version, err := semver.ParseTolerant(entry.Name())
		if err != nil {
			continue
		}

		if best == "" || version.GT(bestVersion) {
			best = entry.Name()
			bestVersion = version
		}
	}

	if best == "" {
		return "", fmt.Errorf("no build-tools versions installed under %s", buildToolsRoot)
	}

	return filepath.Join(buildToolsRoot, best), nil
}

// Zipalign aligns an APK ahead of signing. Alignment is an optimization;
// callers treat a failure here as a warning, not a build failure.
func (cli *Cli) Zipalign(ctx context.Context, env []string, inputPath string, outputPath string) error {
	buildTools, err := cli.BuildToolsDir()
	if err != nil {
		return err
	}

	runArgs := exec.NewRunArgs(
		filepath.Join(buildTools, exeName("zipalign")),
		"-f", "4", inputPath, outputPath,
	).WithEnv(env)

	if _, err := cli.commandRunner.Run(ctx, runArgs); err != nil {
		return fmt.Errorf("aligning %s: %w", inputPath, err)
	}

	return nil
}

// Sign signs an APK in place with apksigner using the given keystore.
func (cli *Cli) Sign(ctx context.Context, env []string, logOutput io.Writer, apkPath string, keystore Keystore) error {
	buildTools, err := cli.BuildToolsDir()
	if err != nil {
		return err
	}

	apksigner := filepath.Join(buildTools, exeName("apksigner"))
	if runtime.GOOS == "windows" {
		apksigner = filepath.Join(buildTools, "apksigner.bat")
	}

	runArgs := exec.NewRunArgs(apksigner,
		"sign",
		"--ks", keystore.Path,
		"--ks-pass", "pass:"+keystore.StorePassword,
		"--ks-key-alias", keystore.Alias,
		"--key-pass", "pass:"+keystore.KeyPassword,
		apkPath,
	).
		WithEnv(env).
		WithStdout(logOutput).
		WithStderr(logOutput).
		WithSensitiveData(keystore.StorePassword, keystore.KeyPassword)

	if _, err := cli.commandRunner.Run(ctx, runArgs); err != nil {
		return fmt.Errorf("signing %s: %w", apkPath, err)
	}

	return nil
}

func (cli *Cli) PlatformsDir() string {
	return filepath.Join(cli.sdkRoot, "platforms")
}

func exeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}
