package appdetect

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// errStopWalk stops a walk early once a detector has gathered enough signal.
var errStopWalk = errors.New("stop walk")

// Directories that never contain classification signal: dependency caches and
// build output of the supported ecosystems.
var skipDirNames = map[string]struct{}{
	"node_modules": {},
	"bin":          {},
	"obj":          {},
	"build":        {},
	"dist":         {},
	"out":          {},
	"target":       {},
	"Library":      {},
	"Temp":         {},
	"Logs":         {},
}

func shouldSkipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, skip := skipDirNames[name]
	return skip
}

// walkFiles visits every regular file under root, calling fn with the
// slash-separated path relative to root. Well-known build-output directories,
// dot directories and excluded patterns are skipped. Unreadable subtrees are
// tolerated: they simply contribute nothing.
func walkFiles(root string, excludes []string, fn func(rel string, entry fs.DirEntry) error) error {
	err := walkFilesRecursive(root, "", excludes, fn)
	if errors.Is(err, errStopWalk) {
		return nil
	}
	return err
}

func walkFilesRecursive(root string, rel string, excludes []string, fn func(rel string, entry fs.DirEntry) error) error {
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		// Unreadable branch. Catch and continue; this branch scores nothing.
		return nil
	}

	for _, entry := range entries {
		entryRel := path.Join(rel, entry.Name())

		if entry.IsDir() {
			if shouldSkipDir(entry.Name()) || matchesAny(excludes, entryRel) {
				continue
			}

			if err := walkFilesRecursive(root, entryRel, excludes, fn); err != nil {
				return err
			}

			continue
		}

		if !entry.Type().IsRegular() {
			continue
		}

		if err := fn(entryRel, entry); err != nil {
			return err
		}
	}

	return nil
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
