package appdetect

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root string, rel string, contents string) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestResolveTypeWeb(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", "<html></html>")
	writeFile(t, root, "css/style.css", "body {}")
	writeFile(t, root, "package.json", `{"name": "site", "dependencies": {"lodash": "^4.0.0"}}`)

	info := ResolveType(root)

	assert.Equal(t, Web, info.Type)
	// index.html (40) + package.json (15) + one asset file (2)
	assert.Equal(t, 57, info.Confidence)
	assert.NotEmpty(t, info.Evidence)
}

func TestResolveTypeWebYieldsToCrossPlatform(t *testing.T) {
	// An index.html does not make a React Native repo a web project.
	root := t.TempDir()
	writeFile(t, root, "index.html", "<html></html>")
	writeFile(t, root, "package.json", `{"dependencies": {"react-native": "0.73.0"}}`)

	info := ResolveType(root)

	assert.Equal(t, CrossJs, info.Type)
}

func TestResolveTypeNative(t *testing.T) {
	tests := []struct {
		name       string
		files      []string
		confidence int
	}{
		{
			name:       "descriptor only",
			files:      []string{"CMakeLists.txt"},
			confidence: 40,
		},
		{
			name:       "descriptor and sources",
			files:      []string{"CMakeLists.txt", "src/main.cpp", "src/util.cpp", "src/util.h"},
			confidence: 55,
		},
		{
			name:       "ndk makefile",
			files:      []string{"jni/Android.mk", "jni/main.c"},
			confidence: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for _, file := range tt.files {
				writeFile(t, root, file, "// source")
			}

			info := ResolveType(root)

			assert.Equal(t, Native, info.Type)
			assert.Equal(t, tt.confidence, info.Confidence)
		})
	}
}

func TestResolveTypeManaged(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "App.csproj",
		"<Project><PropertyGroup><TargetFramework>net8.0-android</TargetFramework></PropertyGroup></Project>")
	writeFile(t, root, "MauiProgram.cs", "namespace App;")

	info := ResolveType(root)

	assert.Equal(t, Managed, info.Type)
	// android project file (50) + MauiProgram.cs (25)
	assert.Equal(t, 75, info.Confidence)
}

func TestResolveTypeManagedGenericProjectIsWeak(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Lib.csproj",
		"<Project><PropertyGroup><TargetFramework>net8.0</TargetFramework></PropertyGroup></Project>")

	info := ResolveType(root)

	assert.Equal(t, Managed, info.Type)
	assert.Equal(t, 15, info.Confidence)
}

func TestResolveTypeCrossJs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies": {"react-native": "0.73.0"}}`)
	writeFile(t, root, "app.json", `{"expo": {"name": "demo"}}`)
	writeFile(t, root, "android/build.gradle", "// gradle")

	info := ResolveType(root)

	assert.Equal(t, CrossJs, info.Type)
	// react-native (55) + app.json (10) + android dir (10)
	assert.Equal(t, 75, info.Confidence)
}

func TestResolveTypeEngine(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Assets/Scenes/Main.unity", "scene")
	writeFile(t, root, "ProjectSettings/ProjectVersion.txt", "m_EditorVersion: 2022.3.1f1")

	info := ResolveType(root)

	assert.Equal(t, Engine, info.Type)
	// Assets (35) + ProjectSettings (35) + version file (10) + one scene (5)
	assert.Equal(t, 85, info.Confidence)
}

func TestResolveTypeUnknown(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# nothing buildable here")

	info := ResolveType(root)

	assert.Equal(t, Unknown, info.Type)
	assert.Equal(t, 0, info.Confidence)
	assert.Empty(t, info.Evidence)
	assert.NotNil(t, info.Evidence)
}

func TestResolveTypeEvidenceIsBounded(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "CMakeLists.txt", "project(app)")
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		writeFile(t, root, "src/"+name+".cpp", "// source")
	}

	info := ResolveType(root)

	assert.Equal(t, Native, info.Type)
	assert.LessOrEqual(t, len(info.Evidence), maxEvidence)
}

func TestResolveTypeExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", "<html></html>")
	writeFile(t, root, "third_party/lib/impl.cpp", "// vendored")
	writeFile(t, root, "third_party/lib/CMakeLists.txt", "project(lib)")

	info := ResolveType(root, WithExcludePatterns("third_party/**"))

	assert.Equal(t, Web, info.Type)
}

type stubDetector struct {
	name   string
	result *DetectionResult
	err    error
	panics bool
}

func (sd *stubDetector) Name() string {
	return sd.name
}

func (sd *stubDetector) Detect(root string) (*DetectionResult, error) {
	if sd.panics {
		panic("stub detector panic")
	}
	return sd.result, sd.err
}

func TestResolveTypeClampsConfidence(t *testing.T) {
	over := &stubDetector{
		name:   "over",
		result: &DetectionResult{Type: Native, Confidence: 250, Evidence: []string{"CMakeLists.txt"}},
	}

	info := ResolveType(t.TempDir(), WithDetectors(over))

	assert.Equal(t, Native, info.Type)
	assert.Equal(t, 100, info.Confidence)
}

func TestResolveTypeTieKeepsEarlierDetector(t *testing.T) {
	first := &stubDetector{
		name:   "first",
		result: &DetectionResult{Type: Engine, Confidence: 60},
	}
	second := &stubDetector{
		name:   "second",
		result: &DetectionResult{Type: Web, Confidence: 60},
	}

	info := ResolveType(t.TempDir(), WithDetectors(first, second))

	assert.Equal(t, Engine, info.Type)
}

func TestResolveTypeIsolatesDetectorFaults(t *testing.T) {
	failing := &stubDetector{name: "failing", err: errors.New("scan failed")}
	panicking := &stubDetector{name: "panicking", panics: true}
	healthy := &stubDetector{
		name:   "healthy",
		result: &DetectionResult{Type: Web, Confidence: 42, Evidence: []string{"index.html"}},
	}

	info := ResolveType(t.TempDir(), WithDetectors(failing, panicking, healthy))

	assert.Equal(t, Web, info.Type)
	assert.Equal(t, 42, info.Confidence)
}

func TestResolveTypeIgnoresZeroConfidenceResults(t *testing.T) {
	empty := &stubDetector{
		name:   "empty",
		result: &DetectionResult{Type: Web, Confidence: 0},
	}

	info := ResolveType(t.TempDir(), WithDetectors(empty))

	assert.Equal(t, Unknown, info.Type)
	assert.Equal(t, 0, info.Confidence)
}

func TestSuggestedName(t *testing.T) {
	tests := []struct {
		dir      string
		expected string
	}{
		{dir: "my-app", expected: "myapp"},
		{dir: "My App 2", expected: "MyApp2"},
		{dir: "demo", expected: "demo"},
		{dir: "---", expected: "app"},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			root := filepath.Join(t.TempDir(), tt.dir)
			require.NoError(t, os.MkdirAll(root, 0755))

			assert.Equal(t, tt.expected, SuggestedName(root))
		})
	}
}

func TestHasManagedWorkflow(t *testing.T) {
	t.Run("expo without android dir", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "package.json", `{"dependencies": {"expo": "~50.0.0"}}`)

		assert.True(t, HasManagedWorkflow(root))
	})

	t.Run("expo with android dir", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "package.json", `{"dependencies": {"expo": "~50.0.0"}}`)
		writeFile(t, root, "android/build.gradle", "// gradle")

		assert.False(t, HasManagedWorkflow(root))
	})

	t.Run("bare react-native", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "package.json", `{"dependencies": {"react-native": "0.73.0"}}`)

		assert.False(t, HasManagedWorkflow(root))
	})
}
