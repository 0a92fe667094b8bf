package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/osutil"
)

// launcherDensities is the fixed set of resolutions a launcher icon must be
// provided at.
var launcherDensities = []string{
	"mipmap-mdpi",
	"mipmap-hdpi",
	"mipmap-xhdpi",
	"mipmap-xxhdpi",
	"mipmap-xxxhdpi",
}

// placeholderPng is a 1x1 transparent PNG used when no icon source is supplied.
// Actual resizing of a supplied icon is delegated to external tooling.
var placeholderPng = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

// WriteIcons materializes the launcher icon at every required density under
// resDir. When iconSource is non-empty its bytes are used as-is for each
// density; otherwise the embedded placeholder is written.
func WriteIcons(iconSource string, resDir string) error {
	icon := placeholderPng
	if iconSource != "" {
		contents, err := os.ReadFile(iconSource)
		if err != nil {
			return fmt.Errorf("reading icon source %s: %w", iconSource, err)
		}
		icon = contents
	}

	for _, density := range launcherDensities {
		dir := filepath.Join(resDir, density)
		if err := os.MkdirAll(dir, osutil.PermissionDirectory); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}

		if err := os.WriteFile(filepath.Join(dir, "ic_launcher.png"), icon, osutil.PermissionFile); err != nil {
			return fmt.Errorf("writing launcher icon for %s: %w", density, err)
		}
	}

	return nil
}
