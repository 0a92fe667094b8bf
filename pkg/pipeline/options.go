package pipeline

import (
	"fmt"
	"regexp"
	"sort"
)

// SignMode selects how the final artifact is signed.
type SignMode string

const (
	// SignModeDebug signs with the shared, lazily generated debug keystore.
	SignModeDebug SignMode = "debug"
	// SignModeRelease signs with caller-supplied credentials; all four fields
	// of SigningCredentials are required.
	SignModeRelease SignMode = "release"
)

// SigningCredentials are the caller-supplied release signing inputs.
type SigningCredentials struct {
	KeystorePath  string `yaml:"keystorePath"`
	StorePassword string `yaml:"storePassword"`
	KeyPassword   string `yaml:"keyPassword"`
	KeyAlias      string `yaml:"keyAlias"`
}

// BuildOptions is the configuration record for one build request. It is
// constructed once and read-only through the pipeline.
type BuildOptions struct {
	AppName     string `yaml:"appName"`
	PackageName string `yaml:"packageName"`
	VersionName string `yaml:"versionName"`
	VersionCode int    `yaml:"versionCode"`

	MinSdk     int `yaml:"minSdk"`
	TargetSdk  int `yaml:"targetSdk"`
	CompileSdk int `yaml:"compileSdk"`

	Architectures []string `yaml:"architectures"`

	SignMode SignMode           `yaml:"signMode"`
	Signing  SigningCredentials `yaml:"signing"`

	IconPath    string   `yaml:"iconPath"`
	Permissions []string `yaml:"permissions"`
	Shrink      bool     `yaml:"shrink"`

	// OutputDir is where the orchestrator places the final signed artifact.
	OutputDir string `yaml:"outputDir"`
}

// Central defaults for build options.
const (
	DefaultMinSdk     = 21
	DefaultTargetSdk  = 34
	DefaultCompileSdk = 34

	PermissionInternet = "android.permission.INTERNET"
)

// DefaultArchitectures returns the default target instruction-set
// architectures.
func DefaultArchitectures() []string {
	return []string{"arm64-v8a", "armeabi-v7a"}
}

// DefaultBuildOptions creates build options with the central defaults applied.
func DefaultBuildOptions(appName string, packageName string) BuildOptions {
	return BuildOptions{
		AppName:       appName,
		PackageName:   packageName,
		VersionName:   "1.0.0",
		VersionCode:   1,
		MinSdk:        DefaultMinSdk,
		TargetSdk:     DefaultTargetSdk,
		CompileSdk:    DefaultCompileSdk,
		Architectures: DefaultArchitectures(),
		SignMode:      SignModeDebug,
		Permissions:   []string{PermissionInternet},
	}
}

// Normalized returns a copy with zero values replaced by defaults and the
// INTERNET permission guaranteed present regardless of input permissions.
func (o BuildOptions) Normalized() BuildOptions {
	if o.VersionName == "" {
		o.VersionName = "1.0.0"
	}
	if o.VersionCode <= 0 {
		o.VersionCode = 1
	}
	if o.MinSdk <= 0 {
		o.MinSdk = DefaultMinSdk
	}
	if o.TargetSdk <= 0 {
		o.TargetSdk = DefaultTargetSdk
	}
	if o.CompileSdk <= 0 {
		o.CompileSdk = DefaultCompileSdk
	}
	if len(o.Architectures) == 0 {
		o.Architectures = DefaultArchitectures()
	}
	if o.SignMode == "" {
		o.SignMode = SignModeDebug
	}

	permissions := map[string]struct{}{PermissionInternet: {}}
	for _, permission := range o.Permissions {
		permissions[permission] = struct{}{}
	}

	o.Permissions = make([]string, 0, len(permissions))
	for permission := range permissions {
		o.Permissions = append(o.Permissions, permission)
	}
	sort.Strings(o.Permissions)

	return o
}

var packageNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)

// Validate checks the identifier fields a pipeline embeds into descriptors.
func (o BuildOptions) Validate() error {
	if o.AppName == "" {
		return fmt.Errorf("app display name is required")
	}

	if !packageNamePattern.MatchString(o.PackageName) {
		return fmt.Errorf("package name %q is not a valid reverse-domain identifier", o.PackageName)
	}

	return nil
}
