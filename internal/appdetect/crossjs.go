package appdetect

import (
	"path/filepath"

	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/osutil"
)

const (
	crossJsReactNativeWeight = 55
	crossJsExpoWeight        = 20
	crossJsAppJsonWeight     = 10
	crossJsAndroidDirWeight  = 10
	crossJsMetroConfigWeight = 5
)

// crossJsDetector classifies React Native / Expo projects. The package.json
// dependency is the primary signal; everything else is corroboration.
type crossJsDetector struct {
}

func (cd *crossJsDetector) Name() string {
	return "cross-js"
}

func (cd *crossJsDetector) Detect(root string) (*DetectionResult, error) {
	packageJsonPath := filepath.Join(root, "package.json")
	if !osutil.FileExists(packageJsonPath) {
		return nil, nil
	}

	pkg, err := readPackagesJson(packageJsonPath)
	if err != nil {
		return nil, err
	}

	result := DetectionResult{Type: CrossJs}

	if pkg.hasDependency("react-native") {
		result.Confidence += crossJsReactNativeWeight
		result.Evidence = addEvidence(result.Evidence, "package.json")
	}

	if pkg.hasDependency("expo") {
		result.Confidence += crossJsExpoWeight
		if len(result.Evidence) == 0 {
			result.Evidence = addEvidence(result.Evidence, "package.json")
		}
	}

	// Without either runtime dependency this is not a cross-platform project,
	// regardless of how the repository is laid out.
	if result.Confidence == 0 {
		return nil, nil
	}

	if osutil.FileExists(filepath.Join(root, "app.json")) {
		result.Confidence += crossJsAppJsonWeight
		result.Evidence = addEvidence(result.Evidence, "app.json")
	}

	if osutil.DirExists(filepath.Join(root, "android")) {
		result.Confidence += crossJsAndroidDirWeight
		result.Evidence = addEvidence(result.Evidence, "android")
	}

	if osutil.FileExists(filepath.Join(root, "metro.config.js")) {
		result.Confidence += crossJsMetroConfigWeight
		result.Evidence = addEvidence(result.Evidence, "metro.config.js")
	}

	return &result, nil
}

// HasManagedWorkflow reports whether a cross-platform JS project at root uses
// the managed (Expo) workflow without a checked-in android subproject. Such
// projects need a scaffold-generation step before the native build.
func HasManagedWorkflow(root string) bool {
	packageJsonPath := filepath.Join(root, "package.json")
	if !osutil.FileExists(packageJsonPath) {
		return false
	}

	pkg, err := readPackagesJson(packageJsonPath)
	if err != nil {
		return false
	}

	return pkg.hasDependency("expo") && !osutil.DirExists(filepath.Join(root, "android"))
}
