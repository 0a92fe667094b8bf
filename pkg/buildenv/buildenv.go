// Package buildenv resolves and validates the pre-provisioned, offline-capable
// toolchain locations that build pipelines invoke.
package buildenv

import (
	"fmt"
	"os"
	"path/filepath"
)

// Role identifies one toolchain the build pipelines may invoke.
type Role string

const (
	RoleJdk         Role = "jdk"
	RoleAndroidSdk  Role = "android-sdk"
	RoleNdk         Role = "ndk"
	RoleGradle      Role = "gradle"
	RoleGradleCache Role = "gradle-cache"
	RoleDotnet      Role = "dotnet"
	RoleNode        Role = "node"
	RoleNodeCache   Role = "npm-cache"
	RoleUnity       Role = "unity-editor"
)

// AllRoles lists every toolchain role, in verification/reporting order.
var AllRoles = []Role{
	RoleJdk,
	RoleAndroidSdk,
	RoleNdk,
	RoleGradle,
	RoleGradleCache,
	RoleDotnet,
	RoleNode,
	RoleNodeCache,
	RoleUnity,
}

// roleDirs maps each role to its subdirectory under the environment base directory.
var roleDirs = map[Role]string{
	RoleJdk:         "jdk",
	RoleAndroidSdk:  "android-sdk",
	RoleNdk:         "android-ndk",
	RoleGradle:      "gradle",
	RoleGradleCache: "gradle-cache",
	RoleDotnet:      "dotnet",
	RoleNode:        "node",
	RoleNodeCache:   "npm-cache",
	RoleUnity:       "unity-editor",
}

// OfflineEnvironment is the resolved set of absolute toolchain paths for one
// orchestrator instance. It is read-only after Resolve; callers re-verify it
// before every build.
type OfflineEnvironment struct {
	base  string
	paths map[Role]string
}

// Resolve maps every toolchain role to its location under base. Resolution is
// purely lexical; Verify performs the existence checks.
func Resolve(base string) (*OfflineEnvironment, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolving toolchain base directory: %w", err)
	}

	paths := make(map[Role]string, len(roleDirs))
	for role, dir := range roleDirs {
		paths[role] = filepath.Join(abs, dir)
	}

	return &OfflineEnvironment{base: abs, paths: paths}, nil
}

// Base returns the base directory the environment was resolved from.
func (e *OfflineEnvironment) Base() string {
	return e.base
}

// Path returns the resolved location for the given toolchain role.
func (e *OfflineEnvironment) Path(role Role) string {
	return e.paths[role]
}

// VerifyResult reports which toolchain roles are missing from disk.
type VerifyResult struct {
	Valid   bool
	Missing []Role
}

// Verify performs existence checks for the given roles, or for every role when
// none are specified. No version validation is attempted; the check exists so
// that a missing toolchain surfaces as a build-blocking error before any
// pipeline stage runs instead of as a confusing failure deep inside a
// third-party toolchain invocation.
func (e *OfflineEnvironment) Verify(roles ...Role) VerifyResult {
	if len(roles) == 0 {
		roles = AllRoles
	}

	result := VerifyResult{Valid: true}
	for _, role := range roles {
		if info, err := os.Stat(e.paths[role]); err != nil || !info.IsDir() {
			result.Missing = append(result.Missing, role)
		}
	}

	result.Valid = len(result.Missing) == 0
	return result
}

// Environ returns the environment variable overlay that points toolchains at
// the resolved locations. The overlay is passed per process invocation; the
// ambient process environment is never mutated.
func (e *OfflineEnvironment) Environ() []string {
	return []string{
		"JAVA_HOME=" + e.paths[RoleJdk],
		"ANDROID_HOME=" + e.paths[RoleAndroidSdk],
		"ANDROID_SDK_ROOT=" + e.paths[RoleAndroidSdk],
		"ANDROID_NDK_HOME=" + e.paths[RoleNdk],
		"GRADLE_USER_HOME=" + e.paths[RoleGradleCache],
		"DOTNET_ROOT=" + e.paths[RoleDotnet],
		"DOTNET_CLI_TELEMETRY_OPTOUT=1",
		"npm_config_cache=" + e.paths[RoleNodeCache],
		"PATH=" + prependPath(
			filepath.Join(e.paths[RoleJdk], "bin"),
			filepath.Join(e.paths[RoleNode], "bin"),
			e.paths[RoleDotnet],
		),
	}
}

func prependPath(dirs ...string) string {
	path := os.Getenv("PATH")
	for i := len(dirs) - 1; i >= 0; i-- {
		path = dirs[i] + string(os.PathListSeparator) + path
	}
	return path
}
