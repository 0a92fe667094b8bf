package pipeline

import (
	"context"
	"io"

	"github.com/PolarPolaris/Apk-Build-By-Polar/internal/scaffold"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/buildenv"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/exec"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools/androidsdk"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools/dotnet"
)

// managedPipeline builds a .NET (MAUI) project through the managed toolchain.
// Per-build identity is injected through a generated Directory.Build.props so
// the project's own descriptor files stay untouched.
type managedPipeline struct {
	commandRunner exec.CommandRunner
}

func NewManagedPipeline(commandRunner exec.CommandRunner) Pipeline {
	return &managedPipeline{commandRunner: commandRunner}
}

func (p *managedPipeline) Name() string {
	return "managed"
}

func (p *managedPipeline) RequiredRoles() []buildenv.Role {
	return []buildenv.Role{
		buildenv.RoleDotnet,
		buildenv.RoleJdk,
		buildenv.RoleAndroidSdk,
	}
}

func (p *managedPipeline) Tools(env *buildenv.OfflineEnvironment) []tools.ExternalTool {
	return []tools.ExternalTool{
		dotnet.NewCli(p.commandRunner, env.Path(buildenv.RoleDotnet)),
		androidsdk.NewCli(p.commandRunner, env.Path(buildenv.RoleAndroidSdk)),
	}
}

func (p *managedPipeline) Prepare(ctx context.Context, sourcePath string) (*Workspace, error) {
	ws, err := newWorkspace()
	if err != nil {
		return nil, err
	}

	if err := ws.CopySource(sourcePath, "src"); err != nil {
		return nil, err
	}

	return ws, nil
}

func (p *managedPipeline) Configure(ctx context.Context, ws *Workspace, options BuildOptions) error {
	options = options.Normalized()
	if err := options.Validate(); err != nil {
		return err
	}

	if err := scaffold.WriteManagedProps(appSpec(options, false), ws.Path("src")); err != nil {
		return err
	}

	ws.Options = options
	return nil
}

func (p *managedPipeline) Build(
	ctx context.Context,
	ws *Workspace,
	env *buildenv.OfflineEnvironment,
	logOutput io.Writer,
) (string, error) {
	cli := dotnet.NewCli(p.commandRunner, env.Path(buildenv.RoleDotnet))

	properties := map[string]string{
		"AndroidSdkDirectory": env.Path(buildenv.RoleAndroidSdk),
		"JavaSdkDirectory":    env.Path(buildenv.RoleJdk),
	}

	if err := cli.PublishAndroid(ctx, ws.Path("src"), ws.Path("out"), env.Environ(), logOutput, properties); err != nil {
		return "", err
	}

	return findApkIn(ws.Path("out"))
}

func (p *managedPipeline) Sign(
	ctx context.Context,
	artifactPath string,
	options BuildOptions,
	env *buildenv.OfflineEnvironment,
	logOutput io.Writer,
) (string, []string, error) {
	return signArtifact(ctx, p.commandRunner, env, artifactPath, options, logOutput)
}
