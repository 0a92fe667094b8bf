package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/PolarPolaris/Apk-Build-By-Polar/internal/scaffold"
)

// appSpec maps normalized build options onto the generator input.
func appSpec(options BuildOptions, nativeBuild bool) scaffold.AppSpec {
	return scaffold.AppSpec{
		AppName:     options.AppName,
		PackageName: options.PackageName,
		VersionName: options.VersionName,
		VersionCode: options.VersionCode,
		MinSdk:      options.MinSdk,
		TargetSdk:   options.TargetSdk,
		CompileSdk:  options.CompileSdk,
		Permissions: options.Permissions,
		Abis:        options.Architectures,
		Shrink:      options.Shrink,
		NativeBuild: nativeBuild,
	}
}

// writeAndroidProject materializes a single-module gradle project under the
// workspace's android directory: build descriptors, manifest, the entry
// activity relocated under the reverse-domain package path, and launcher
// icons.
func writeAndroidProject(ws *Workspace, options BuildOptions, kind scaffold.ActivityKind, nativeBuild bool) error {
	spec := appSpec(options, nativeBuild)
	androidDir := ws.Path("android")
	mainDir := filepath.Join(androidDir, "app", "src", "main")

	if err := scaffold.WriteGradleProject(spec, androidDir); err != nil {
		return fmt.Errorf("generating gradle descriptors: %w", err)
	}

	if err := scaffold.WriteManifest(spec, filepath.Join(mainDir, "AndroidManifest.xml")); err != nil {
		return fmt.Errorf("generating manifest: %w", err)
	}

	if _, err := scaffold.WriteMainActivity(spec, filepath.Join(mainDir, "java"), kind); err != nil {
		return fmt.Errorf("generating entry activity: %w", err)
	}

	if err := scaffold.WriteIcons(options.IconPath, filepath.Join(mainDir, "res")); err != nil {
		return fmt.Errorf("generating launcher icons: %w", err)
	}

	return nil
}

// unsignedReleaseApk is the gradle output location for an unsigned release
// build of the generated android project.
func unsignedReleaseApk(androidDir string) string {
	return filepath.Join(androidDir, "app", "build", "outputs", "apk", "release", "app-release-unsigned.apk")
}
