package orchestrator

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PolarPolaris/Apk-Build-By-Polar/internal/appdetect"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/buildenv"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/exec"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/pipeline"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopRunner struct{}

func (noopRunner) Run(ctx context.Context, args exec.RunArgs) (exec.RunResult, error) {
	return exec.NewRunResult(0, "", ""), nil
}

// fakePipeline records which stages ran and lets each stage's outcome be
// scripted.
type fakePipeline struct {
	roles []buildenv.Role
	tools []tools.ExternalTool

	prepareCalled   bool
	configureCalled bool
	buildCalled     bool
	signCalled      bool

	configureErr error
	buildErr     error
	configureFn  func(ws *pipeline.Workspace, options pipeline.BuildOptions)
	buildFn      func()

	scratch  string
	artifact string
	signed   string
}

func (p *fakePipeline) Name() string {
	return "fake"
}

func (p *fakePipeline) RequiredRoles() []buildenv.Role {
	return p.roles
}

func (p *fakePipeline) Tools(env *buildenv.OfflineEnvironment) []tools.ExternalTool {
	return p.tools
}

func (p *fakePipeline) Prepare(ctx context.Context, sourcePath string) (*pipeline.Workspace, error) {
	p.prepareCalled = true
	return &pipeline.Workspace{Root: p.scratch}, nil
}

func (p *fakePipeline) Configure(ctx context.Context, ws *pipeline.Workspace, options pipeline.BuildOptions) error {
	p.configureCalled = true
	if p.configureFn != nil {
		p.configureFn(ws, options)
	}
	if p.configureErr != nil {
		return p.configureErr
	}
	ws.Options = options.Normalized()
	return nil
}

func (p *fakePipeline) Build(
	ctx context.Context,
	ws *pipeline.Workspace,
	env *buildenv.OfflineEnvironment,
	logOutput io.Writer,
) (string, error) {
	p.buildCalled = true
	if p.buildFn != nil {
		p.buildFn()
	}
	if p.buildErr != nil {
		return "", p.buildErr
	}
	return p.artifact, nil
}

func (p *fakePipeline) Sign(
	ctx context.Context,
	artifactPath string,
	options pipeline.BuildOptions,
	env *buildenv.OfflineEnvironment,
	logOutput io.Writer,
) (string, []string, error) {
	p.signCalled = true
	return p.signed, nil, nil
}

type fakeRegistry struct {
	selected pipeline.Pipeline
}

func (r *fakeRegistry) For(projectType appdetect.ProjectType) (pipeline.Pipeline, error) {
	return r.selected, nil
}

func webSource(t *testing.T) string {
	t.Helper()

	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "index.html"), []byte("<html></html>"), 0644))
	return source
}

func newTestOrchestrator(t *testing.T, fake *fakePipeline, provision ...buildenv.Role) *Orchestrator {
	t.Helper()

	env, err := buildenv.Resolve(t.TempDir())
	require.NoError(t, err)

	// The environment owns the role directory layout; ask it where each role
	// lives instead of guessing.
	for _, role := range provision {
		require.NoError(t, os.MkdirAll(env.Path(role), 0755))
	}

	return New(env, noopRunner{}, WithRegistry(&fakeRegistry{selected: fake}))
}

func scriptedArtifacts(t *testing.T, fake *fakePipeline) {
	t.Helper()

	fake.scratch = t.TempDir()
	fake.artifact = filepath.Join(fake.scratch, "app-release-unsigned.apk")
	fake.signed = filepath.Join(fake.scratch, "app-release-unsigned-signed.apk")
	require.NoError(t, os.WriteFile(fake.artifact, []byte("unsigned"), 0644))
	require.NoError(t, os.WriteFile(fake.signed, []byte("signed"), 0644))
}

func TestBuildHappyPath(t *testing.T) {
	fake := &fakePipeline{roles: []buildenv.Role{buildenv.RoleJdk}}
	scriptedArtifacts(t, fake)

	orch := newTestOrchestrator(t, fake, buildenv.RoleJdk)

	outputDir := t.TempDir()
	options := pipeline.BuildOptions{
		AppName:     "Demo",
		PackageName: "com.example.demo",
		OutputDir:   outputDir,
	}

	var events []pipeline.BuildProgress
	result := orch.Build(context.Background(), webSource(t), options,
		func(progress pipeline.BuildProgress) { events = append(events, progress) }, io.Discard)

	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.True(t, fake.prepareCalled)
	assert.True(t, fake.configureCalled)
	assert.True(t, fake.buildCalled)
	assert.True(t, fake.signCalled)

	// The signed artifact is placed under the output directory with the
	// suggested name and version.
	assert.Equal(t, filepath.Dir(result.ArtifactPath), outputDir)
	assert.FileExists(t, result.ArtifactPath)
	contents, err := os.ReadFile(result.ArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, "signed", string(contents))

	assert.Equal(t, fake.artifact, result.SecondaryArtifactPath)
	assert.GreaterOrEqual(t, result.Elapsed, time.Duration(0))

	// Progress percents are monotonically non-decreasing and end at 100.
	require.NotEmpty(t, events)
	last := 0
	for _, event := range events {
		assert.GreaterOrEqual(t, event.Percent, last)
		last = event.Percent
	}
	assert.Equal(t, 100, last)
}

func TestBuildFailsWhenRequiredRoleMissing(t *testing.T) {
	fake := &fakePipeline{roles: []buildenv.Role{buildenv.RoleJdk, buildenv.RoleGradle}}

	// Only the jdk is provisioned.
	orch := newTestOrchestrator(t, fake, buildenv.RoleJdk)

	result := orch.Build(context.Background(), webSource(t), pipeline.BuildOptions{
		AppName:     "Demo",
		PackageName: "com.example.demo",
	}, nil, nil)

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "gradle")

	// No stage runs against an incomplete environment.
	assert.False(t, fake.prepareCalled)
}

// failingTool always fails its health check.
type failingTool struct {
	name string
	err  error
}

func (ft *failingTool) Name() string {
	return ft.name
}

func (ft *failingTool) CheckInstalled(_ context.Context) error {
	return ft.err
}

func TestBuildFailsWhenToolHealthCheckFails(t *testing.T) {
	fake := &fakePipeline{
		roles: []buildenv.Role{buildenv.RoleJdk},
		tools: []tools.ExternalTool{
			&failingTool{name: "gradle", err: errors.New("launcher script is corrupt")},
		},
	}

	orch := newTestOrchestrator(t, fake, buildenv.RoleJdk)

	result := orch.Build(context.Background(), webSource(t), pipeline.BuildOptions{
		AppName:     "Demo",
		PackageName: "com.example.demo",
	}, nil, nil)

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "gradle")
	assert.Contains(t, result.Errors[0], "launcher script is corrupt")

	// An unusable toolchain stops the build before any stage runs.
	assert.False(t, fake.prepareCalled)
}

func TestBuildCallsAreSerialized(t *testing.T) {
	fake := &fakePipeline{roles: []buildenv.Role{buildenv.RoleJdk}}
	scriptedArtifacts(t, fake)

	var active, overlapped int32
	fake.buildFn = func() {
		if atomic.AddInt32(&active, 1) > 1 {
			atomic.StoreInt32(&overlapped, 1)
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&active, -1)
	}

	orch := newTestOrchestrator(t, fake, buildenv.RoleJdk)
	source := webSource(t)
	outputDirs := [2]string{t.TempDir(), t.TempDir()}

	var results [2]*pipeline.BuildResult
	var streams [2][]pipeline.BuildProgress

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = orch.Build(context.Background(), source, pipeline.BuildOptions{
				AppName:     "Demo",
				PackageName: "com.example.demo",
				OutputDir:   outputDirs[i],
			}, func(progress pipeline.BuildProgress) {
				streams[i] = append(streams[i], progress)
			}, nil)
		}()
	}
	wg.Wait()

	// The two builds never executed a stage at the same time.
	assert.Equal(t, int32(0), overlapped)

	// Each caller observes only its own, complete progress stream.
	for i := range results {
		require.True(t, results[i].Success, "errors: %v", results[i].Errors)

		last := 0
		for _, event := range streams[i] {
			require.GreaterOrEqual(t, event.Percent, last)
			last = event.Percent
		}
		assert.Equal(t, 100, last)
	}
}

func TestBuildStopsAfterBuildFailure(t *testing.T) {
	fake := &fakePipeline{
		roles:    []buildenv.Role{buildenv.RoleJdk},
		scratch:  t.TempDir(),
		buildErr: errors.New("compilation failed"),
	}

	orch := newTestOrchestrator(t, fake, buildenv.RoleJdk)

	result := orch.Build(context.Background(), webSource(t), pipeline.BuildOptions{
		AppName:     "Demo",
		PackageName: "com.example.demo",
	}, nil, nil)

	assert.False(t, result.Success)
	assert.Empty(t, result.ArtifactPath)
	assert.True(t, fake.buildCalled)
	assert.False(t, fake.signCalled)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "compilation failed")
}

func TestBuildRecoversFromPanic(t *testing.T) {
	fake := &fakePipeline{
		roles:   []buildenv.Role{buildenv.RoleJdk},
		scratch: t.TempDir(),
		configureFn: func(ws *pipeline.Workspace, options pipeline.BuildOptions) {
			panic("descriptor generation bug")
		},
	}

	orch := newTestOrchestrator(t, fake, buildenv.RoleJdk)

	result := orch.Build(context.Background(), webSource(t), pipeline.BuildOptions{
		AppName:     "Demo",
		PackageName: "com.example.demo",
	}, nil, nil)

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "internal error")
	assert.Contains(t, result.Errors[0], "descriptor generation bug")
}

func TestBuildUnknownProjectType(t *testing.T) {
	fake := &fakePipeline{roles: []buildenv.Role{buildenv.RoleJdk}}
	orch := newTestOrchestrator(t, fake, buildenv.RoleJdk)

	// Nothing buildable in the source directory.
	result := orch.Build(context.Background(), t.TempDir(), pipeline.BuildOptions{
		AppName:     "Demo",
		PackageName: "com.example.demo",
	}, nil, nil)

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "project type")
	assert.False(t, fake.prepareCalled)
}

func TestBuildWarnsAboutUnprovisionedRoles(t *testing.T) {
	fake := &fakePipeline{roles: []buildenv.Role{buildenv.RoleJdk}}
	scriptedArtifacts(t, fake)

	// Only the jdk exists; every other role becomes an advisory warning.
	orch := newTestOrchestrator(t, fake, buildenv.RoleJdk)

	result := orch.Build(context.Background(), webSource(t), pipeline.BuildOptions{
		AppName:     "Demo",
		PackageName: "com.example.demo",
		OutputDir:   t.TempDir(),
	}, nil, nil)

	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.NotEmpty(t, result.Warnings)
}

func TestDetectProject(t *testing.T) {
	fake := &fakePipeline{}
	orch := newTestOrchestrator(t, fake)

	info := orch.DetectProject(webSource(t))

	assert.Equal(t, appdetect.Web, info.Type)
	assert.Greater(t, info.Confidence, 0)
}
