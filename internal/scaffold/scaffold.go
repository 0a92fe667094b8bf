// Package scaffold generates the toolchain descriptor files a build pipeline
// materializes into its scratch copy: the android manifest, gradle descriptors,
// entry-point sources and launcher icons.
//
// Generation is deterministic for a given AppSpec so that re-running a
// configure stage produces byte-identical output.
package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/osutil"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// AppSpec carries the validated build options a generator embeds into
// descriptor files.
type AppSpec struct {
	AppName     string
	PackageName string
	VersionName string
	VersionCode int
	MinSdk      int
	TargetSdk   int
	CompileSdk  int
	Permissions []string
	Abis        []string
	Shrink      bool

	// NativeBuild enables the cmake externalNativeBuild block in the module
	// descriptor.
	NativeBuild bool
	// NativeLibName is the JNI library the generated entry activity loads.
	NativeLibName string
}

var (
	loadOnce  sync.Once
	templates *template.Template
	loadErr   error
)

func load() (*template.Template, error) {
	loadOnce.Do(func() {
		templates, loadErr = template.ParseFS(templatesFS, "templates/*.tmpl")
	})
	return templates, loadErr
}

// normalized returns a copy of the spec with deterministic collection order and
// defaults filled in.
func (spec AppSpec) normalized() AppSpec {
	permissions := append([]string{}, spec.Permissions...)
	sort.Strings(permissions)
	spec.Permissions = permissions

	abis := append([]string{}, spec.Abis...)
	sort.Strings(abis)
	spec.Abis = abis

	if spec.NativeLibName == "" {
		spec.NativeLibName = "main"
	}

	return spec
}

func render(name string, spec AppSpec, outputPath string) error {
	tmpl, err := load()
	if err != nil {
		return fmt.Errorf("loading scaffold templates: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, spec.normalized()); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), osutil.PermissionDirectory); err != nil {
		return fmt.Errorf("creating directory for %s: %w", outputPath, err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), osutil.PermissionFile); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	return nil
}

// WriteManifest writes the android manifest declaring the package identifier,
// the requested permissions and the launcher entry point.
func WriteManifest(spec AppSpec, outputPath string) error {
	return render("AndroidManifest.xml.tmpl", spec, outputPath)
}

// WriteGradleProject writes the settings, root and module build descriptors and
// gradle properties for a single-module android project rooted at androidDir.
func WriteGradleProject(spec AppSpec, androidDir string) error {
	files := map[string]string{
		"settings.gradle.tmpl":     filepath.Join(androidDir, "settings.gradle"),
		"build.gradle.tmpl":        filepath.Join(androidDir, "build.gradle"),
		"module.build.gradle.tmpl": filepath.Join(androidDir, "app", "build.gradle"),
		"gradle.properties.tmpl":   filepath.Join(androidDir, "gradle.properties"),
	}

	for _, name := range sortedTemplateNames(files) {
		if err := render(name, spec, files[name]); err != nil {
			return err
		}
	}

	return nil
}

// ActivityKind selects which entry activity source is generated.
type ActivityKind string

const (
	// WebActivity hosts bundled web assets in a WebView.
	WebActivity ActivityKind = "web"
	// NativeActivity loads the project's JNI library.
	NativeActivity ActivityKind = "native"
)

// WriteMainActivity writes the entry activity source under javaRoot, relocated
// into the directory path matching the reverse-domain package identifier.
// Returns the written file path.
func WriteMainActivity(spec AppSpec, javaRoot string, kind ActivityKind) (string, error) {
	packagePath := filepath.Join(strings.Split(spec.PackageName, ".")...)
	outputPath := filepath.Join(javaRoot, packagePath, "MainActivity.java")

	templateName := "MainActivity.web.java.tmpl"
	if kind == NativeActivity {
		templateName = "MainActivity.native.java.tmpl"
	}

	if err := render(templateName, spec, outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}

// WriteCMakeLists synthesizes a minimal native build descriptor for projects
// that lack one.
func WriteCMakeLists(spec AppSpec, outputPath string) error {
	return render("CMakeLists.txt.tmpl", spec, outputPath)
}

// WriteManagedProps writes the msbuild property overrides that apply the build
// options to a managed (MAUI) project without touching its project file.
func WriteManagedProps(spec AppSpec, projectDir string) error {
	return render("Directory.Build.props.tmpl", spec, filepath.Join(projectDir, "Directory.Build.props"))
}

// WriteEngineExportScript writes the editor-side build entry point invoked by
// the engine pipeline's batch-mode export.
func WriteEngineExportScript(spec AppSpec, projectDir string) error {
	return render("ApkExport.cs.tmpl", spec, filepath.Join(projectDir, "Assets", "Editor", "ApkExport.cs"))
}

func sortedTemplateNames(files map[string]string) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
