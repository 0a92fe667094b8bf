package appdetect

import (
	"io/fs"
	"path"
	"path/filepath"

	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/osutil"
)

const (
	engineAssetsDirWeight   = 35
	engineSettingsDirWeight = 35
	engineVersionFileWeight = 10
	engineSceneFileWeight   = 5
	engineSceneFileMax      = 15
)

// engineDetector classifies Unity-like engine projects by their two marker
// directories plus scene files.
type engineDetector struct {
	excludePatterns []string
}

func (ed *engineDetector) Name() string {
	return "engine"
}

func (ed *engineDetector) setExcludePatterns(patterns []string) {
	ed.excludePatterns = patterns
}

func (ed *engineDetector) Detect(root string) (*DetectionResult, error) {
	result := DetectionResult{Type: Engine}

	if osutil.DirExists(filepath.Join(root, "Assets")) {
		result.Confidence += engineAssetsDirWeight
		result.Evidence = addEvidence(result.Evidence, "Assets")
	}

	if osutil.DirExists(filepath.Join(root, "ProjectSettings")) {
		result.Confidence += engineSettingsDirWeight
		result.Evidence = addEvidence(result.Evidence, "ProjectSettings")
	}

	if result.Confidence == 0 {
		return nil, nil
	}

	if osutil.FileExists(filepath.Join(root, "ProjectSettings", "ProjectVersion.txt")) {
		result.Confidence += engineVersionFileWeight
		result.Evidence = addEvidence(result.Evidence, "ProjectSettings/ProjectVersion.txt")
	}

	sceneFiles := 0
	err := walkFiles(filepath.Join(root, "Assets"), ed.excludePatterns, func(rel string, entry fs.DirEntry) error {
		if path.Ext(rel) == ".unity" {
			sceneFiles++
			result.Evidence = addEvidence(result.Evidence, path.Join("Assets", rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Confidence += min(sceneFiles*engineSceneFileWeight, engineSceneFileMax)

	return &result, nil
}
