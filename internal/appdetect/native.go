package appdetect

import (
	"io/fs"
	"path"
	"path/filepath"

	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/osutil"
)

const (
	nativeCMakeListsWeight  = 40
	nativeNdkMakefileWeight = 25
	nativeSourceFileWeight  = 5
	nativeSourceFileMax     = 30
)

var nativeSourceExts = map[string]struct{}{
	".c":   {},
	".cc":  {},
	".cpp": {},
	".cxx": {},
	".h":   {},
	".hpp": {},
}

// nativeDetector classifies C/C++ projects built through the native toolchain.
type nativeDetector struct {
	excludePatterns []string
}

func (nd *nativeDetector) Name() string {
	return "native"
}

func (nd *nativeDetector) setExcludePatterns(patterns []string) {
	nd.excludePatterns = patterns
}

func (nd *nativeDetector) Detect(root string) (*DetectionResult, error) {
	result := DetectionResult{Type: Native}

	if osutil.FileExists(filepath.Join(root, "CMakeLists.txt")) {
		result.Confidence += nativeCMakeListsWeight
		result.Evidence = addEvidence(result.Evidence, "CMakeLists.txt")
	}

	for _, makefile := range []string{"Android.mk", "jni/Android.mk"} {
		if osutil.FileExists(filepath.Join(root, filepath.FromSlash(makefile))) {
			result.Confidence += nativeNdkMakefileWeight
			result.Evidence = addEvidence(result.Evidence, makefile)
			break
		}
	}

	sourceFiles := 0
	err := walkFiles(root, nd.excludePatterns, func(rel string, entry fs.DirEntry) error {
		if _, ok := nativeSourceExts[path.Ext(rel)]; ok {
			sourceFiles++
			result.Evidence = addEvidence(result.Evidence, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Confidence += min(sourceFiles*nativeSourceFileWeight, nativeSourceFileMax)

	if result.Confidence == 0 {
		return nil, nil
	}

	return &result, nil
}
