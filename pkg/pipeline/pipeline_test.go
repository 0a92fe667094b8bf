package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarPolaris/Apk-Build-By-Polar/internal/appdetect"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/buildenv"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/exec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records invocations; pipelines under test never reach a real
// toolchain.
type fakeRunner struct {
	calls []exec.RunArgs
}

func (r *fakeRunner) Run(ctx context.Context, args exec.RunArgs) (exec.RunResult, error) {
	r.calls = append(r.calls, args)
	return exec.NewRunResult(0, "", ""), nil
}

// testEnvironment resolves an offline environment rooted in a scratch
// directory; no toolchain actually exists there.
func testEnvironment(t *testing.T) *buildenv.OfflineEnvironment {
	t.Helper()

	env, err := buildenv.Resolve(t.TempDir())
	require.NoError(t, err)
	return env
}

func TestRegistryDispatch(t *testing.T) {
	registry := NewRegistry(&fakeRunner{})

	tests := []struct {
		projectType appdetect.ProjectType
		name        string
	}{
		{projectType: appdetect.Web, name: "web"},
		{projectType: appdetect.Native, name: "native"},
		{projectType: appdetect.Managed, name: "managed"},
		{projectType: appdetect.CrossJs, name: "cross-js"},
		{projectType: appdetect.Engine, name: "engine"},
	}

	for _, tt := range tests {
		t.Run(string(tt.projectType), func(t *testing.T) {
			selected, err := registry.For(tt.projectType)
			require.NoError(t, err)
			assert.Equal(t, tt.name, selected.Name())
		})
	}
}

func TestPipelineTools(t *testing.T) {
	registry := NewRegistry(&fakeRunner{})
	env := testEnvironment(t)

	tests := []struct {
		projectType appdetect.ProjectType
		toolNames   []string
	}{
		{projectType: appdetect.Web, toolNames: []string{"gradle", "android-sdk build-tools"}},
		{projectType: appdetect.Native, toolNames: []string{"gradle", "android-sdk build-tools"}},
		{projectType: appdetect.Managed, toolNames: []string{"dotnet", "android-sdk build-tools"}},
		{projectType: appdetect.CrossJs, toolNames: []string{"node", "gradle", "android-sdk build-tools"}},
		{projectType: appdetect.Engine, toolNames: []string{"unity editor", "android-sdk build-tools"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.projectType), func(t *testing.T) {
			selected, err := registry.For(tt.projectType)
			require.NoError(t, err)

			names := []string{}
			for _, tool := range selected.Tools(env) {
				names = append(names, tool.Name())
			}
			assert.ElementsMatch(t, tt.toolNames, names)
		})
	}
}

func TestRegistryUnknownType(t *testing.T) {
	registry := NewRegistry(&fakeRunner{})

	_, err := registry.For(appdetect.Unknown)
	assert.Error(t, err)
}

func TestFindArtifact(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "app.apk")
	require.NoError(t, os.WriteFile(existing, []byte("apk"), 0644))

	t.Run("first existing candidate wins", func(t *testing.T) {
		found, err := findArtifact(filepath.Join(dir, "missing.apk"), existing)
		require.NoError(t, err)
		assert.Equal(t, existing, found)
	})

	t.Run("missing artifact is a distinct error", func(t *testing.T) {
		_, err := findArtifact(filepath.Join(dir, "missing.apk"))
		assert.True(t, errors.Is(err, ErrArtifactMissing))
	})

	t.Run("directories do not count", func(t *testing.T) {
		_, err := findArtifact(dir)
		assert.True(t, errors.Is(err, ErrArtifactMissing))
	})
}

func TestFindApkIn(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.apk"), []byte("apk"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.apk"), []byte("apk"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("txt"), 0644))

	found, err := findApkIn(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.apk"), found)

	_, err = findApkIn(t.TempDir())
	assert.True(t, errors.Is(err, ErrArtifactMissing))
}
