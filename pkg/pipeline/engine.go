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
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools/unity"
)

// enginePipeline exports a Unity-like engine project through the editor in
// batch mode. Detection has already passed by the time this runs; the marker
// directories are still re-checked because their absence is a fatal
// configuration error, not a low-confidence outcome.
type enginePipeline struct {
	commandRunner exec.CommandRunner
}

func NewEnginePipeline(commandRunner exec.CommandRunner) Pipeline {
	return &enginePipeline{commandRunner: commandRunner}
}

func (p *enginePipeline) Name() string {
	return "engine"
}

func (p *enginePipeline) RequiredRoles() []buildenv.Role {
	return []buildenv.Role{
		buildenv.RoleUnity,
		buildenv.RoleJdk,
		buildenv.RoleAndroidSdk,
	}
}

func (p *enginePipeline) Tools(env *buildenv.OfflineEnvironment) []tools.ExternalTool {
	return []tools.ExternalTool{
		unity.NewCli(p.commandRunner, env.Path(buildenv.RoleUnity)),
		androidsdk.NewCli(p.commandRunner, env.Path(buildenv.RoleAndroidSdk)),
	}
}

func (p *enginePipeline) Prepare(ctx context.Context, sourcePath string) (*Workspace, error) {
	for _, marker := range []string{"Assets", "ProjectSettings"} {
		if !osutil.DirExists(filepath.Join(sourcePath, marker)) {
			return nil, fmt.Errorf("engine project is missing its %s directory", marker)
		}
	}

	ws, err := newWorkspace()
	if err != nil {
		return nil, err
	}

	if err := ws.CopySource(sourcePath, "src"); err != nil {
		return nil, err
	}

	return ws, nil
}

func (p *enginePipeline) Configure(ctx context.Context, ws *Workspace, options BuildOptions) error {
	options = options.Normalized()
	if err := options.Validate(); err != nil {
		return err
	}

	if err := scaffold.WriteEngineExportScript(appSpec(options, false), ws.Path("src")); err != nil {
		return err
	}

	ws.Options = options
	return nil
}

func (p *enginePipeline) Build(
	ctx context.Context,
	ws *Workspace,
	env *buildenv.OfflineEnvironment,
	logOutput io.Writer,
) (string, error) {
	cli := unity.NewCli(p.commandRunner, env.Path(buildenv.RoleUnity))

	outputPath := ws.Path("output", "app.apk")
	if err := cli.Export(ctx, ws.Path("src"), outputPath, env.Environ(), logOutput); err != nil {
		return "", err
	}

	return findArtifact(outputPath)
}

func (p *enginePipeline) Sign(
	ctx context.Context,
	artifactPath string,
	options BuildOptions,
	env *buildenv.OfflineEnvironment,
	logOutput io.Writer,
) (string, []string, error) {
	return signArtifact(ctx, p.commandRunner, env, artifactPath, options, logOutput)
}
