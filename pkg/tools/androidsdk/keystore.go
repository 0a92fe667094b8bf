package androidsdk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/exec"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/osutil"
	"github.com/gofrs/flock"
)

// Keystore holds the four credential fields apksigner needs.
type Keystore struct {
	Path          string
	StorePassword string
	KeyPassword   string
	Alias         string
}

// Well-known debug signing parameters, identical to the ones the Android
// tooling itself generates.
const (
	debugStorePassword = "android"
	debugKeyPassword   = "android"
	debugKeyAlias      = "androiddebugkey"
	debugDName         = "CN=Android Debug,O=Android,C=US"
	debugValidityDays  = "10000"
)

// DebugKeystorePath returns the fixed user-level location of the shared debug
// keystore, reused across builds.
func DebugKeystorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating user home directory: %w", err)
	}

	return filepath.Join(home, ".android", "debug.keystore"), nil
}

// ResolveDebugKeystore returns the shared debug keystore, lazily generating it
// with the JDK keytool on first use. Generation is guarded with a file lock so
// that two builds racing on first use do not corrupt the keystore.
func ResolveDebugKeystore(ctx context.Context, commandRunner exec.CommandRunner, env []string, jdkHome string) (Keystore, error) {
	path, err := DebugKeystorePath()
	if err != nil {
		return Keystore{}, err
	}

	return resolveDebugKeystoreAt(ctx, commandRunner, env, jdkHome, path)
}

func resolveDebugKeystoreAt(
	ctx context.Context,
	commandRunner exec.CommandRunner,
	env []string,
	jdkHome string,
	path string,
) (Keystore, error) {
	keystore := Keystore{
		Path:          path,
		StorePassword: debugStorePassword,
		KeyPassword:   debugKeyPassword,
		Alias:         debugKeyAlias,
	}

	if osutil.FileExists(path) {
		return keystore, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), osutil.PermissionDirectoryOwnerOnly); err != nil {
		return Keystore{}, fmt.Errorf("creating keystore directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return Keystore{}, fmt.Errorf("locking debug keystore for creation: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	// Another build may have created it while we waited on the lock.
	if osutil.FileExists(path) {
		return keystore, nil
	}

	keytool := filepath.Join(jdkHome, "bin", exeName("keytool"))
	runArgs := exec.NewRunArgs(keytool,
		"-genkeypair",
		"-keystore", path,
		"-storepass", debugStorePassword,
		"-keypass", debugKeyPassword,
		"-alias", debugKeyAlias,
		"-dname", debugDName,
		"-keyalg", "RSA",
		"-keysize", "2048",
		"-validity", debugValidityDays,
	).
		WithEnv(env).
		WithSensitiveData(debugStorePassword)

	if _, err := commandRunner.Run(ctx, runArgs); err != nil {
		return Keystore{}, fmt.Errorf("generating debug keystore: %w", err)
	}

	return keystore, nil
}
