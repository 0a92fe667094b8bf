// Package appdetect classifies a source-code project directory as one of the
// supported buildable technologies using weighted file-presence heuristics.
package appdetect

import (
	"log"
	"path/filepath"
	"regexp"
)

// ProjectType enumerates the technologies a project can be classified as.
type ProjectType string

const (
	// A static web / SPA project packaged into a WebView host.
	Web ProjectType = "web"
	// A native C/C++ project built through the NDK.
	Native ProjectType = "native"
	// A .NET (MAUI) project built through the managed toolchain.
	Managed ProjectType = "managed"
	// A cross-platform JavaScript project (React Native / Expo).
	CrossJs ProjectType = "cross-js"
	// A game-engine (Unity-like) project exported through the engine editor.
	Engine ProjectType = "engine"
	// No detector produced any evidence.
	Unknown ProjectType = "unknown"
)

// ProjectInfo is the canonical classification record for one detection call.
// It is immutable after creation and consumed by pipeline selection.
type ProjectInfo struct {
	Path          string
	Type          ProjectType
	Confidence    int
	Evidence      []string
	SuggestedName string
}

// DetectionResult is the raw outcome of a single detector. Confidence is an
// unbounded accumulator here; the resolver clamps it to [0,100].
type DetectionResult struct {
	Type       ProjectType
	Confidence int
	Evidence   []string
}

// Detector inspects a directory tree and scores how strongly it matches one
// project type. Implementations are read-only with respect to the project and
// return nil (not a zero-confidence result) when they find no evidence at all,
// so the resolver can skip them cheaply.
type Detector interface {
	Name() string
	Detect(root string) (*DetectionResult, error)
}

// maxEvidence bounds the number of matched paths a detector records.
const maxEvidence = 5

// defaultDetectors is the registration order, which doubles as the explicit
// tie-break priority when two detectors report equal confidence: the more
// specific ecosystems come first so that, for example, an engine project
// carrying a stray package.json resolves to the engine type.
func defaultDetectors() []Detector {
	return []Detector{
		&engineDetector{},
		&crossJsDetector{},
		&managedDetector{},
		&nativeDetector{},
		&webDetector{},
	}
}

type resolveConfig struct {
	detectors       []Detector
	excludePatterns []string
}

// DetectOption configures ResolveType.
type DetectOption func(*resolveConfig)

// WithDetectors replaces the registered detector set. Order is the tie-break
// priority.
func WithDetectors(detectors ...Detector) DetectOption {
	return func(c *resolveConfig) {
		c.detectors = detectors
	}
}

// WithExcludePatterns adds doublestar patterns for directories excluded from
// filesystem scans, matched against slash-separated paths relative to the
// project root.
func WithExcludePatterns(patterns ...string) DetectOption {
	return func(c *resolveConfig) {
		c.excludePatterns = append(c.excludePatterns, patterns...)
	}
}

// ResolveType runs every registered detector against root and selects the
// highest-confidence candidate. It never returns an error: a detector failure
// is logged and treated as no evidence for that detector only, and a project
// matching nothing resolves to Unknown with confidence 0.
func ResolveType(root string, opts ...DetectOption) ProjectInfo {
	cfg := resolveConfig{detectors: defaultDetectors()}
	for _, opt := range opts {
		opt(&cfg)
	}

	info := ProjectInfo{
		Path:          root,
		Type:          Unknown,
		Evidence:      []string{},
		SuggestedName: SuggestedName(root),
	}

	var best *DetectionResult
	for _, detector := range cfg.detectors {
		result := runDetector(detector, root, cfg.excludePatterns)
		if result == nil || result.Confidence <= 0 {
			continue
		}

		// Strictly greater keeps the earlier (higher priority) detector on ties.
		if best == nil || result.Confidence > best.Confidence {
			best = result
		}
	}

	if best == nil {
		return info
	}

	info.Type = best.Type
	info.Confidence = clampConfidence(best.Confidence)
	info.Evidence = best.Evidence
	if info.Evidence == nil {
		info.Evidence = []string{}
	}

	return info
}

// runDetector isolates detector faults: an error or panic from one detector
// must not abort resolution for the others.
func runDetector(detector Detector, root string, excludes []string) (result *DetectionResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("appdetect: %s detector panicked on %s: %v", detector.Name(), root, r)
			result = nil
		}
	}()

	if scoped, ok := detector.(excludeAwareDetector); ok {
		scoped.setExcludePatterns(excludes)
	}

	result, err := detector.Detect(root)
	if err != nil {
		log.Printf("appdetect: %s detector failed on %s: %v", detector.Name(), root, err)
		return nil
	}

	return result
}

// excludeAwareDetector is implemented by detectors whose filesystem scans honor
// the resolver's exclude patterns.
type excludeAwareDetector interface {
	setExcludePatterns(patterns []string)
}

func clampConfidence(confidence int) int {
	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SuggestedName derives an app name from the final path segment, sanitized to
// alphanumerics.
func SuggestedName(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	name := nonAlphanumeric.ReplaceAllString(filepath.Base(abs), "")
	if name == "" {
		name = "app"
	}

	return name
}

func addEvidence(evidence []string, path string) []string {
	if len(evidence) >= maxEvidence {
		return evidence
	}
	return append(evidence, path)
}
