package appdetect

import (
	"io/fs"
	"path"
	"path/filepath"

	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/osutil"
)

// Weights for independent web signals. Multiple signals add; the resolver
// clamps the sum.
const (
	webIndexHtmlWeight   = 40
	webPackageJsonWeight = 15
	webAssetFileWeight   = 2
	webAssetFileMax      = 20
)

// webDetector classifies static web / SPA projects. It yields to the
// cross-platform JS detector: a package.json carrying a react-native or expo
// dependency means the project is not a plain web app, even when an index.html
// is present.
type webDetector struct {
	excludePatterns []string
}

func (wd *webDetector) Name() string {
	return "web"
}

func (wd *webDetector) setExcludePatterns(patterns []string) {
	wd.excludePatterns = patterns
}

func (wd *webDetector) Detect(root string) (*DetectionResult, error) {
	result := DetectionResult{Type: Web}

	packageJsonPath := filepath.Join(root, "package.json")
	hasPackageJson := osutil.FileExists(packageJsonPath)

	if hasPackageJson {
		pkg, err := readPackagesJson(packageJsonPath)
		if err != nil {
			return nil, err
		}

		if pkg.hasCrossPlatformMarker() {
			// Cross-platform JS ecosystem; not ours to classify.
			return nil, nil
		}
	}

	indexFound := false
	assetFiles := 0

	err := walkFiles(root, wd.excludePatterns, func(rel string, entry fs.DirEntry) error {
		if !indexFound && path.Base(rel) == "index.html" {
			indexFound = true
			result.Evidence = addEvidence(result.Evidence, rel)
			return nil
		}

		switch path.Ext(rel) {
		case ".html", ".css", ".js":
			assetFiles++
			result.Evidence = addEvidence(result.Evidence, rel)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if indexFound {
		result.Confidence += webIndexHtmlWeight
	}

	if hasPackageJson {
		result.Confidence += webPackageJsonWeight
		result.Evidence = addEvidence(result.Evidence, "package.json")
	}

	result.Confidence += min(assetFiles*webAssetFileWeight, webAssetFileMax)

	if result.Confidence == 0 {
		return nil, nil
	}

	return &result, nil
}
