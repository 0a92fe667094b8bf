package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/PolarPolaris/Apk-Build-By-Polar/internal/appdetect"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/buildenv"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/exec"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/osutil"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools/androidsdk"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools/gradle"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools/node"
)

// crossJsPipeline builds a React Native / Expo project. Managed-workflow
// projects (no checked-in android subproject) first run a scaffold-generation
// step that converts the scratch copy into one with a native subproject, then
// proceed identically to the native gradle path.
type crossJsPipeline struct {
	commandRunner exec.CommandRunner
}

func NewCrossJsPipeline(commandRunner exec.CommandRunner) Pipeline {
	return &crossJsPipeline{commandRunner: commandRunner}
}

func (p *crossJsPipeline) Name() string {
	return "cross-js"
}

func (p *crossJsPipeline) RequiredRoles() []buildenv.Role {
	return []buildenv.Role{
		buildenv.RoleNode,
		buildenv.RoleNodeCache,
		buildenv.RoleJdk,
		buildenv.RoleAndroidSdk,
		buildenv.RoleGradle,
		buildenv.RoleGradleCache,
	}
}

func (p *crossJsPipeline) Tools(env *buildenv.OfflineEnvironment) []tools.ExternalTool {
	return []tools.ExternalTool{
		node.NewCli(p.commandRunner, env.Path(buildenv.RoleNode), env.Path(buildenv.RoleNodeCache)),
		gradle.NewCli(p.commandRunner, env.Path(buildenv.RoleGradle), env.Path(buildenv.RoleGradleCache)),
		androidsdk.NewCli(p.commandRunner, env.Path(buildenv.RoleAndroidSdk)),
	}
}

func (p *crossJsPipeline) Prepare(ctx context.Context, sourcePath string) (*Workspace, error) {
	ws, err := newWorkspace()
	if err != nil {
		return nil, err
	}

	if err := ws.CopySource(sourcePath, "src"); err != nil {
		return nil, err
	}

	return ws, nil
}

func (p *crossJsPipeline) Configure(ctx context.Context, ws *Workspace, options BuildOptions) error {
	options = options.Normalized()
	if err := options.Validate(); err != nil {
		return err
	}

	if err := p.rewriteAppJson(ws, options); err != nil {
		return err
	}

	ws.Options = options
	return nil
}

// rewriteAppJson applies the app identity into the Expo app descriptor when one
// exists. encoding/json marshals map keys in sorted order, so the rewrite is
// deterministic.
func (p *crossJsPipeline) rewriteAppJson(ws *Workspace, options BuildOptions) error {
	appJsonPath := ws.Path("src", "app.json")
	if !osutil.FileExists(appJsonPath) {
		return nil
	}

	contents, err := os.ReadFile(appJsonPath)
	if err != nil {
		return fmt.Errorf("reading app.json: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(contents, &doc); err != nil {
		return fmt.Errorf("parsing app.json: %w", err)
	}

	expo, _ := doc["expo"].(map[string]any)
	if expo == nil {
		expo = map[string]any{}
	}

	expo["name"] = options.AppName
	expo["version"] = options.VersionName

	android, _ := expo["android"].(map[string]any)
	if android == nil {
		android = map[string]any{}
	}
	android["package"] = options.PackageName
	android["versionCode"] = options.VersionCode
	expo["android"] = android
	doc["expo"] = expo

	updated, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding app.json: %w", err)
	}
	updated = append(updated, '\n')

	if err := os.WriteFile(appJsonPath, updated, osutil.PermissionFile); err != nil {
		return fmt.Errorf("writing app.json: %w", err)
	}

	return nil
}

func (p *crossJsPipeline) Build(
	ctx context.Context,
	ws *Workspace,
	env *buildenv.OfflineEnvironment,
	logOutput io.Writer,
) (string, error) {
	nodeCli := node.NewCli(p.commandRunner, env.Path(buildenv.RoleNode), env.Path(buildenv.RoleNodeCache))

	projectDir := ws.Path("src")
	if err := nodeCli.Install(ctx, projectDir, env.Environ(), logOutput); err != nil {
		return "", err
	}

	if !osutil.DirExists(ws.Path("src", "android")) {
		if !appdetect.HasManagedWorkflow(projectDir) {
			return "", fmt.Errorf(
				"project has no android subproject and no managed-workflow marker; cannot generate one")
		}

		if err := nodeCli.ExpoPrebuild(ctx, projectDir, env.Environ(), logOutput); err != nil {
			return "", err
		}

		if !osutil.DirExists(ws.Path("src", "android")) {
			return "", fmt.Errorf("scaffold generation completed but no android subproject was produced")
		}
	}

	gradleCli := gradle.NewCli(p.commandRunner, env.Path(buildenv.RoleGradle), env.Path(buildenv.RoleGradleCache))
	if err := gradleCli.Run(ctx, ws.Path("src", "android"), env.Environ(), logOutput, "assembleRelease"); err != nil {
		return "", err
	}

	return findArtifact(
		ws.Path("src", "android", "app", "build", "outputs", "apk", "release", "app-release-unsigned.apk"),
		ws.Path("src", "android", "app", "build", "outputs", "apk", "release", "app-release.apk"),
	)
}

func (p *crossJsPipeline) Sign(
	ctx context.Context,
	artifactPath string,
	options BuildOptions,
	env *buildenv.OfflineEnvironment,
	logOutput io.Writer,
) (string, []string, error) {
	return signArtifact(ctx, p.commandRunner, env, artifactPath, options, logOutput)
}
