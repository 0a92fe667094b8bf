package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crossJsFixture(t *testing.T) string {
	t.Helper()

	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "package.json"),
		[]byte(`{"name": "demo", "dependencies": {"react-native": "0.73.0", "expo": "~50.0.0"}}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "app.json"),
		[]byte(`{"expo": {"name": "old-name", "slug": "demo"}}`), 0644))
	return source
}

func TestCrossJsConfigureRewritesAppJson(t *testing.T) {
	source := crossJsFixture(t)
	p := NewCrossJsPipeline(&fakeRunner{})

	ws, err := p.Prepare(context.Background(), source)
	require.NoError(t, err)
	t.Cleanup(ws.Remove)

	require.NoError(t, p.Configure(context.Background(), ws, BuildOptions{
		AppName:     "Demo",
		PackageName: "com.example.demo",
		VersionName: "2.0.0",
		VersionCode: 5,
	}))

	contents, err := os.ReadFile(ws.Path("src", "app.json"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(contents, &doc))

	expo := doc["expo"].(map[string]any)
	assert.Equal(t, "Demo", expo["name"])
	assert.Equal(t, "2.0.0", expo["version"])
	// Unrelated fields survive the rewrite.
	assert.Equal(t, "demo", expo["slug"])

	android := expo["android"].(map[string]any)
	assert.Equal(t, "com.example.demo", android["package"])
	assert.Equal(t, float64(5), android["versionCode"])

	// The original descriptor is untouched.
	original, err := os.ReadFile(filepath.Join(source, "app.json"))
	require.NoError(t, err)
	assert.Contains(t, string(original), "old-name")
}

func TestCrossJsConfigureIsIdempotent(t *testing.T) {
	source := crossJsFixture(t)
	p := NewCrossJsPipeline(&fakeRunner{})

	ws, err := p.Prepare(context.Background(), source)
	require.NoError(t, err)
	t.Cleanup(ws.Remove)

	options := BuildOptions{
		AppName:     "Demo",
		PackageName: "com.example.demo",
		VersionName: "2.0.0",
		VersionCode: 5,
	}

	require.NoError(t, p.Configure(context.Background(), ws, options))
	first, err := os.ReadFile(ws.Path("src", "app.json"))
	require.NoError(t, err)

	require.NoError(t, p.Configure(context.Background(), ws, options))
	second, err := os.ReadFile(ws.Path("src", "app.json"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCrossJsConfigureWithoutAppJson(t *testing.T) {
	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "package.json"),
		[]byte(`{"dependencies": {"react-native": "0.73.0"}}`), 0644))

	p := NewCrossJsPipeline(&fakeRunner{})

	ws, err := p.Prepare(context.Background(), source)
	require.NoError(t, err)
	t.Cleanup(ws.Remove)

	// A bare React Native project has no Expo descriptor to rewrite.
	assert.NoError(t, p.Configure(context.Background(), ws, BuildOptions{
		AppName:     "Demo",
		PackageName: "com.example.demo",
	}))
}

func TestCrossJsBuildRunsInstallBeforeScaffoldGeneration(t *testing.T) {
	source := crossJsFixture(t)
	runner := &fakeRunner{}
	p := NewCrossJsPipeline(runner)

	ws, err := p.Prepare(context.Background(), source)
	require.NoError(t, err)
	t.Cleanup(ws.Remove)

	require.NoError(t, p.Configure(context.Background(), ws, BuildOptions{
		AppName:     "Demo",
		PackageName: "com.example.demo",
	}))

	env := testEnvironment(t)

	// The fake prebuild does not create the android subproject, so the build
	// fails there, after npm install and expo prebuild have both run.
	_, err = p.Build(context.Background(), ws, env, os.Stderr)
	require.Error(t, err)
	assert.ErrorContains(t, err, "no android subproject")

	require.Len(t, runner.calls, 2)
	assert.Contains(t, runner.calls[0].Args, "install")
	assert.Contains(t, runner.calls[1].Args, "prebuild")
}
