// Package orchestrator sequences a build: environment verification, project
// detection, pipeline selection, the four pipeline stages and output
// placement, emitting progress events and converting every failure into a
// terminal BuildResult.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PolarPolaris/Apk-Build-By-Polar/internal/appdetect"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/async"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/buildenv"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/exec"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/osutil"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/pipeline"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools"
	"github.com/benbjohnson/clock"
)

// Stage names used in progress events.
const (
	StageVerify    = "verify"
	StageDetect    = "detect"
	StagePrepare   = "prepare"
	StageConfigure = "configure"
	StageBuild     = "build"
	StageSign      = "sign"
	StageFinalize  = "finalize"
)

// ProgressFunc receives progress events for one build invocation. Progress is
// scoped per call; two builds never share listeners.
type ProgressFunc func(pipeline.BuildProgress)

// Orchestrator issues builds against one resolved offline environment. It is
// safe to hold as a single long-lived instance; concurrent Build calls are
// serialized.
type Orchestrator struct {
	env           *buildenv.OfflineEnvironment
	commandRunner exec.CommandRunner
	registry      pipeline.Registry
	clock         clock.Clock

	buildMu sync.Mutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRegistry replaces the pipeline dispatch table.
func WithRegistry(registry pipeline.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithClock replaces the clock used for elapsed-time measurement.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) {
		o.clock = c
	}
}

func New(env *buildenv.OfflineEnvironment, commandRunner exec.CommandRunner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		env:           env,
		commandRunner: commandRunner,
		registry:      pipeline.NewRegistry(commandRunner),
		clock:         clock.New(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// DetectProject classifies the project at path without building it.
func (o *Orchestrator) DetectProject(path string) appdetect.ProjectInfo {
	return appdetect.ResolveType(path)
}

// Build runs the full pipeline for the project at sourcePath and always
// returns a terminal BuildResult; no stage error or panic escapes. Toolchain
// output streams to logOutput as it arrives.
func (o *Orchestrator) Build(
	ctx context.Context,
	sourcePath string,
	options pipeline.BuildOptions,
	onProgress ProgressFunc,
	logOutput io.Writer,
) *pipeline.BuildResult {
	o.buildMu.Lock()
	defer o.buildMu.Unlock()

	if onProgress == nil {
		onProgress = func(pipeline.BuildProgress) {}
	}
	if logOutput == nil {
		logOutput = io.Discard
	}

	start := o.clock.Now()

	result, _ := async.Observe(onProgress, func(progress *async.Reporter[pipeline.BuildProgress]) (*pipeline.BuildResult, error) {
		return o.run(ctx, sourcePath, options, progress, logOutput), nil
	})

	result.Elapsed = o.clock.Since(start)
	return result
}

func (o *Orchestrator) run(
	ctx context.Context,
	sourcePath string,
	options pipeline.BuildOptions,
	progress *async.Reporter[pipeline.BuildProgress],
	logOutput io.Writer,
) (result *pipeline.BuildResult) {
	result = &pipeline.BuildResult{}

	// No stage failure or unexpected panic may escape: the caller always
	// receives a terminal result carrying at least one error string.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("orchestrator: recovered panic during build of %s: %v", sourcePath, r)
			result.Success = false
			result.ArtifactPath = ""
			result.Errors = append(result.Errors, fmt.Sprintf("internal error: %v", r))
		}
	}()

	fail := func(format string, args ...any) *pipeline.BuildResult {
		result.Success = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
		return result
	}

	report := func(stage string, percent int, message string) {
		progress.Report(pipeline.BuildProgress{Stage: stage, Percent: percent, Message: message})
	}

	report(StageVerify, 5, "verifying offline environment")

	// Advisory sweep over every role: a role unused by the eventual pipeline
	// becomes a warning, not an error.
	if advisory := o.env.Verify(); !advisory.Valid {
		for _, role := range advisory.Missing {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("toolchain role %q is not provisioned under %s", role, o.env.Base()))
		}
	}

	report(StageDetect, 10, "detecting project type")

	info := appdetect.ResolveType(sourcePath)
	if info.Type == appdetect.Unknown {
		return fail("unable to determine the project type of %s: no detector found any evidence", sourcePath)
	}

	report(StageDetect, 15, fmt.Sprintf("detected %s project (confidence %d)", info.Type, info.Confidence))

	selected, err := o.registry.For(info.Type)
	if err != nil {
		return fail("selecting build pipeline: %v", err)
	}

	// Hard check: every role the selected pipeline invokes must exist before
	// any stage executes.
	if required := o.env.Verify(selected.RequiredRoles()...); !required.Valid {
		return fail("missing required toolchain roles for a %s build: %s",
			selected.Name(), joinRoles(required.Missing))
	}

	report(StageVerify, 20, "checking toolchain health")

	for _, tool := range tools.Unique(selected.Tools(o.env)) {
		if err := tool.CheckInstalled(ctx); err != nil {
			return fail("toolchain %s failed its health check: %v", tool.Name(), err)
		}
	}

	report(StagePrepare, 25, "preparing isolated workspace")

	ws, err := selected.Prepare(ctx, sourcePath)
	if err != nil {
		return fail("preparing workspace: %v", err)
	}

	report(StageConfigure, 40, "applying build configuration")

	if err := selected.Configure(ctx, ws, options); err != nil {
		return fail("configuring workspace: %v", err)
	}

	report(StageBuild, 45, fmt.Sprintf("building with the %s pipeline", selected.Name()))

	artifact, err := selected.Build(ctx, ws, o.env, logOutput)
	if err != nil {
		return fail("building: %v", err)
	}

	report(StageSign, 85, "signing artifact")

	signed, warnings, err := selected.Sign(ctx, artifact, ws.Options, o.env, logOutput)
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		return fail("signing: %v", err)
	}

	report(StageFinalize, 95, "placing output artifact")

	outputDir := ws.Options.OutputDir
	if outputDir == "" {
		outputDir = "dist"
	}

	finalPath := filepath.Join(outputDir, fmt.Sprintf("%s-%s.apk", info.SuggestedName, ws.Options.VersionName))
	if err := osutil.CopyFile(signed, finalPath); err != nil {
		return fail("placing output artifact: %v", err)
	}

	result.Success = true
	result.ArtifactPath = finalPath
	result.SecondaryArtifactPath = artifact

	report(StageFinalize, 100, "build complete")
	return result
}

func joinRoles(roles []buildenv.Role) string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	return strings.Join(names, ", ")
}
