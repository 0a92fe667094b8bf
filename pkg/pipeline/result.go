package pipeline

import "time"

// BuildResult is the terminal value of one build attempt, produced exactly
// once.
type BuildResult struct {
	Success bool
	// ArtifactPath is the final signed artifact, when the build succeeded.
	ArtifactPath string
	// SecondaryArtifactPath is the unsigned intermediate artifact, when one
	// survives output placement.
	SecondaryArtifactPath string
	Errors                []string
	Warnings              []string
	Elapsed               time.Duration
}

// BuildProgress is an ephemeral progress event broadcast to listeners of one
// build invocation. Percent is monotonically non-decreasing within a build.
type BuildProgress struct {
	Stage   string
	Percent int
	Message string
}
