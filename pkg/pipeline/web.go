package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/PolarPolaris/Apk-Build-By-Polar/internal/scaffold"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/buildenv"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/exec"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools/androidsdk"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools/gradle"
)

// webPipeline packages a static web project into a WebView host application.
type webPipeline struct {
	commandRunner exec.CommandRunner
}

func NewWebPipeline(commandRunner exec.CommandRunner) Pipeline {
	return &webPipeline{commandRunner: commandRunner}
}

func (p *webPipeline) Name() string {
	return "web"
}

func (p *webPipeline) RequiredRoles() []buildenv.Role {
	return []buildenv.Role{
		buildenv.RoleJdk,
		buildenv.RoleAndroidSdk,
		buildenv.RoleGradle,
		buildenv.RoleGradleCache,
	}
}

func (p *webPipeline) Tools(env *buildenv.OfflineEnvironment) []tools.ExternalTool {
	return []tools.ExternalTool{
		gradle.NewCli(p.commandRunner, env.Path(buildenv.RoleGradle), env.Path(buildenv.RoleGradleCache)),
		androidsdk.NewCli(p.commandRunner, env.Path(buildenv.RoleAndroidSdk)),
	}
}

func (p *webPipeline) Prepare(ctx context.Context, sourcePath string) (*Workspace, error) {
	ws, err := newWorkspace()
	if err != nil {
		return nil, err
	}

	if err := ws.CopySource(sourcePath, "src"); err != nil {
		return nil, err
	}

	return ws, nil
}

func (p *webPipeline) Configure(ctx context.Context, ws *Workspace, options BuildOptions) error {
	options = options.Normalized()
	if err := options.Validate(); err != nil {
		return err
	}

	if err := writeAndroidProject(ws, options, scaffold.WebActivity, false); err != nil {
		return err
	}

	// The web assets become the WebView's document root.
	assetsDir := filepath.Join(ws.Path("android"), "app", "src", "main", "assets", "www")
	if err := ws.CopySource(ws.Path("src"), filepath.Join("android", "app", "src", "main", "assets", "www")); err != nil {
		return fmt.Errorf("staging web assets into %s: %w", assetsDir, err)
	}

	ws.Options = options
	return nil
}

func (p *webPipeline) Build(
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

func (p *webPipeline) Sign(
	ctx context.Context,
	artifactPath string,
	options BuildOptions,
	env *buildenv.OfflineEnvironment,
	logOutput io.Writer,
) (string, []string, error) {
	return signArtifact(ctx, p.commandRunner, env, artifactPath, options, logOutput)
}
