package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/osutil"
	"github.com/google/uuid"
	"github.com/otiai10/copy"
)

// Workspace is the isolated, uniquely named scratch directory one build
// mutates. The original source tree is never touched.
type Workspace struct {
	Root string

	// Options is recorded by Configure for use by the later stages.
	Options BuildOptions
}

// Directories that are never carried into a scratch copy: dependency caches,
// build output, and engine-local state. They are recreated by the toolchains
// as needed.
var scratchCopySkipDirs = map[string]struct{}{
	".git":         {},
	".gradle":      {},
	"node_modules": {},
	"build":        {},
	"bin":          {},
	"obj":          {},
	"Library":      {},
	"Temp":         {},
	"Logs":         {},
}

// newWorkspace creates a fresh, uniquely named scratch directory. Any previous
// content at the generated path is discarded, so re-running Prepare recreates
// the workspace from scratch.
func newWorkspace() (*Workspace, error) {
	root := filepath.Join(os.TempDir(), "apkforge-"+uuid.NewString())

	if err := os.RemoveAll(root); err != nil {
		return nil, fmt.Errorf("clearing scratch directory %s: %w", root, err)
	}

	if err := os.MkdirAll(root, osutil.PermissionDirectory); err != nil {
		return nil, fmt.Errorf("creating scratch directory %s: %w", root, err)
	}

	return &Workspace{Root: root}, nil
}

// Path joins parts onto the workspace root.
func (ws *Workspace) Path(parts ...string) string {
	return filepath.Join(append([]string{ws.Root}, parts...)...)
}

// CopySource copies the project source tree into the workspace under destSub,
// skipping dependency caches and build output.
func (ws *Workspace) CopySource(sourcePath string, destSub string) error {
	dest := ws.Path(destSub)

	err := copy.Copy(sourcePath, dest, copy.Options{
		Skip: func(srcinfo os.FileInfo, src string, dest string) (bool, error) {
			if !srcinfo.IsDir() {
				return false, nil
			}
			_, skip := scratchCopySkipDirs[srcinfo.Name()]
			return skip, nil
		},
		OnSymlink: func(src string) copy.SymlinkAction {
			return copy.Skip
		},
	})
	if err != nil {
		return fmt.Errorf("copying project into scratch directory: %w", err)
	}

	return nil
}

// Remove deletes the scratch directory. Best effort; a leftover scratch
// directory is garbage, not a correctness problem.
func (ws *Workspace) Remove() {
	_ = os.RemoveAll(ws.Root)
}
