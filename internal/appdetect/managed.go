package appdetect

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	managedAndroidProjectWeight = 50
	managedProjectFileWeight    = 15
	managedMauiProgramWeight    = 25
	managedXamlFileWeight       = 5
	managedXamlFileMax          = 15
)

// managedDetector classifies .NET (MAUI) projects. A project file targeting an
// android TFM or enabling MAUI scores far higher than a generic .csproj so
// that ordinary .NET libraries stay low-confidence.
type managedDetector struct {
	excludePatterns []string
}

func (md *managedDetector) Name() string {
	return "managed"
}

func (md *managedDetector) setExcludePatterns(patterns []string) {
	md.excludePatterns = patterns
}

func (md *managedDetector) Detect(root string) (*DetectionResult, error) {
	result := DetectionResult{Type: Managed}

	projectScored := false
	xamlFiles := 0

	err := walkFiles(root, md.excludePatterns, func(rel string, entry fs.DirEntry) error {
		switch path.Ext(rel) {
		case ".csproj", ".fsproj":
			if projectScored {
				return nil
			}
			projectScored = true
			result.Evidence = addEvidence(result.Evidence, rel)

			if isAndroidProjectFile(filepath.Join(root, filepath.FromSlash(rel))) {
				result.Confidence += managedAndroidProjectWeight
			} else {
				result.Confidence += managedProjectFileWeight
			}
		case ".xaml":
			xamlFiles++
			result.Evidence = addEvidence(result.Evidence, rel)
		case ".cs":
			if path.Base(rel) == "MauiProgram.cs" {
				result.Confidence += managedMauiProgramWeight
				result.Evidence = addEvidence(result.Evidence, rel)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Confidence += min(xamlFiles*managedXamlFileWeight, managedXamlFileMax)

	if result.Confidence == 0 {
		return nil, nil
	}

	return &result, nil
}

// isAndroidProjectFile peeks into a project file for an android target
// framework or a MAUI marker. Read failures contribute no extra score rather
// than failing detection.
func isAndroidProjectFile(projectPath string) bool {
	contents, err := os.ReadFile(projectPath)
	if err != nil {
		return false
	}

	text := string(contents)
	return strings.Contains(text, "-android") || strings.Contains(text, "<UseMaui>true</UseMaui>")
}
