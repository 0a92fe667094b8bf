// Package pipeline implements the four-stage build contract
// (prepare/configure/build/sign) for each supported project type.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PolarPolaris/Apk-Build-By-Polar/internal/appdetect"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/buildenv"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/exec"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools"
)

// ErrArtifactMissing distinguishes "the toolchain reported success but no
// artifact exists at the expected path" from a toolchain invocation failure.
var ErrArtifactMissing = errors.New("toolchain succeeded but no artifact was found at the expected path")

// Pipeline is the four-stage build contract. Stage failures short-circuit the
// orchestrator: a failed Build never reaches Sign.
type Pipeline interface {
	Name() string

	// RequiredRoles lists the toolchain roles this pipeline invokes. The
	// orchestrator verifies them before any stage executes.
	RequiredRoles() []buildenv.Role

	// Tools returns the external toolchain wrappers this pipeline drives
	// against env. The orchestrator health-checks each one before any stage
	// executes.
	Tools(env *buildenv.OfflineEnvironment) []tools.ExternalTool

	// Prepare materializes an isolated working copy of the project into a
	// freshly created scratch directory. The original source tree is never
	// mutated.
	Prepare(ctx context.Context, sourcePath string) (*Workspace, error)

	// Configure applies BuildOptions into the scratch copy: identifiers,
	// versions and permission declarations in descriptor files, icon assets,
	// and package-path relocation of generated sources. Safe to call exactly
	// once after Prepare.
	Configure(ctx context.Context, ws *Workspace, options BuildOptions) error

	// Build invokes the external toolchain to produce an unsigned artifact and
	// returns its path. Toolchain output streams to logOutput as it arrives.
	Build(ctx context.Context, ws *Workspace, env *buildenv.OfflineEnvironment, logOutput io.Writer) (string, error)

	// Sign produces a signed artifact from artifactPath, returning the new
	// path and any non-fatal warnings.
	Sign(
		ctx context.Context,
		artifactPath string,
		options BuildOptions,
		env *buildenv.OfflineEnvironment,
		logOutput io.Writer,
	) (string, []string, error)
}

// Registry resolves the pipeline for a classified project type.
type Registry interface {
	For(projectType appdetect.ProjectType) (Pipeline, error)
}

type registry struct {
	pipelines map[appdetect.ProjectType]Pipeline
}

// NewRegistry builds the dispatch table mapping each supported project type to
// its pipeline.
func NewRegistry(commandRunner exec.CommandRunner) Registry {
	return &registry{
		pipelines: map[appdetect.ProjectType]Pipeline{
			appdetect.Web:     NewWebPipeline(commandRunner),
			appdetect.Native:  NewNativePipeline(commandRunner),
			appdetect.Managed: NewManagedPipeline(commandRunner),
			appdetect.CrossJs: NewCrossJsPipeline(commandRunner),
			appdetect.Engine:  NewEnginePipeline(commandRunner),
		},
	}
}

func (r *registry) For(projectType appdetect.ProjectType) (Pipeline, error) {
	pipeline, ok := r.pipelines[projectType]
	if !ok {
		return nil, fmt.Errorf("no build pipeline registered for project type %q", projectType)
	}

	return pipeline, nil
}

// findArtifact returns the first existing candidate path, or an
// ErrArtifactMissing naming the expected locations.
func findArtifact(candidates ...string) (string, error) {
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: expected %s", ErrArtifactMissing, strings.Join(candidates, " or "))
}

// findApkIn returns the lexically first .apk within dir, or ErrArtifactMissing.
func findApkIn(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: expected an .apk under %s", ErrArtifactMissing, dir)
	}

	apks := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".apk" {
			apks = append(apks, filepath.Join(dir, entry.Name()))
		}
	}

	if len(apks) == 0 {
		return "", fmt.Errorf("%w: expected an .apk under %s", ErrArtifactMissing, dir)
	}

	sort.Strings(apks)
	return apks[0], nil
}
