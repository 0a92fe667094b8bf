package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/PolarPolaris/Apk-Build-By-Polar/internal/scaffold"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/buildenv"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/exec"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/osutil"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools/androidsdk"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools/gradle"
)

// nativePipeline builds a C/C++ project through the NDK, wrapped in a generated
// android project that drives cmake.
type nativePipeline struct {
	commandRunner exec.CommandRunner
}

func NewNativePipeline(commandRunner exec.CommandRunner) Pipeline {
	return &nativePipeline{commandRunner: commandRunner}
}

func (p *nativePipeline) Name() string {
	return "native"
}

func (p *nativePipeline) RequiredRoles() []buildenv.Role {
	return []buildenv.Role{
		buildenv.RoleJdk,
		buildenv.RoleAndroidSdk,
		buildenv.RoleNdk,
		buildenv.RoleGradle,
		buildenv.RoleGradleCache,
	}
}

func (p *nativePipeline) Tools(env *buildenv.OfflineEnvironment) []tools.ExternalTool {
	return []tools.ExternalTool{
		gradle.NewCli(p.commandRunner, env.Path(buildenv.RoleGradle), env.Path(buildenv.RoleGradleCache)),
		androidsdk.NewCli(p.commandRunner, env.Path(buildenv.RoleAndroidSdk)),
	}
}

func (p *nativePipeline) Prepare(ctx context.Context, sourcePath string) (*Workspace, error) {
	ws, err := newWorkspace()
	if err != nil {
		return nil, err
	}

	if err := ws.CopySource(sourcePath, "src"); err != nil {
		return nil, err
	}

	return ws, nil
}

func (p *nativePipeline) Configure(ctx context.Context, ws *Workspace, options BuildOptions) error {
	options = options.Normalized()
	if err := options.Validate(); err != nil {
		return err
	}

	if err := writeAndroidProject(ws, options, scaffold.NativeActivity, true); err != nil {
		return err
	}

	// The native sources become the cmake project referenced by the module
	// descriptor's externalNativeBuild block.
	cppSub := filepath.Join("android", "app", "src", "main", "cpp")
	if err := ws.CopySource(ws.Path("src"), cppSub); err != nil {
		return fmt.Errorf("staging native sources: %w", err)
	}

	// Projects without a native build descriptor get a minimal synthesized one.
	cmakeLists := ws.Path(cppSub, "CMakeLists.txt")
	if !osutil.FileExists(cmakeLists) {
		if err := scaffold.WriteCMakeLists(appSpec(options, true), cmakeLists); err != nil {
			return fmt.Errorf("synthesizing native build descriptor: %w", err)
		}
	}

	ws.Options = options
	return nil
}

func (p *nativePipeline) Build(
	ctx context.Context,
	ws *Workspace,
	env *buildenv.OfflineEnvironment,
	logOutput io.Writer,
) (string, error) {
	cli := gradle.NewCli(p.commandRunner, env.Path(buildenv.RoleGradle), env.Path(buildenv.RoleGradleCache))

	if err := cli.Run(ctx, ws.Path("android"), env.Environ(), logOutput, "assembleRelease"); err != nil {
		return "", err
	}

	return findArtifact(unsignedReleaseApk(ws.Path("android")))
}

func (p *nativePipeline) Sign(
	ctx context.Context,
	artifactPath string,
	options BuildOptions,
	env *buildenv.OfflineEnvironment,
	logOutput io.Writer,
) (string, []string, error) {
	return signArtifact(ctx, p.commandRunner, env, artifactPath, options, logOutput)
}
