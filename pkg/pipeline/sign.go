package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/buildenv"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/exec"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/osutil"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/tools/androidsdk"
)

// signArtifact implements the sign stage shared by every pipeline variant.
//
// Debug mode resolves (lazily creating) the shared debug keystore. Release mode
// requires all four credential fields; omission is a configuration error, never
// silently defaulted. Alignment is best-effort: a zipalign failure degrades to
// a warning and the unaligned artifact is signed instead.
func signArtifact(
	ctx context.Context,
	commandRunner exec.CommandRunner,
	env *buildenv.OfflineEnvironment,
	artifactPath string,
	options BuildOptions,
	logOutput io.Writer,
) (string, []string, error) {
	var warnings []string

	sdk := androidsdk.NewCli(commandRunner, env.Path(buildenv.RoleAndroidSdk))

	var keystore androidsdk.Keystore
	switch options.SignMode {
	case SignModeRelease:
		credentials := options.Signing
		if credentials.KeystorePath == "" || credentials.StorePassword == "" ||
			credentials.KeyPassword == "" || credentials.KeyAlias == "" {
			return "", nil, fmt.Errorf(
				"release signing requires keystore path, store password, key password and key alias")
		}

		keystore = androidsdk.Keystore{
			Path:          credentials.KeystorePath,
			StorePassword: credentials.StorePassword,
			KeyPassword:   credentials.KeyPassword,
			Alias:         credentials.KeyAlias,
		}
	default:
		debugKeystore, err := androidsdk.ResolveDebugKeystore(
			ctx, commandRunner, env.Environ(), env.Path(buildenv.RoleJdk))
		if err != nil {
			return "", nil, fmt.Errorf("resolving debug keystore: %w", err)
		}
		keystore = debugKeystore
	}

	signedPath := strings.TrimSuffix(artifactPath, ".apk") + "-signed.apk"

	if err := sdk.Zipalign(ctx, env.Environ(), artifactPath, signedPath); err != nil {
		warnings = append(warnings, fmt.Sprintf("zipalign failed, signing unaligned artifact: %v", err))
		if err := osutil.CopyFile(artifactPath, signedPath); err != nil {
			return "", warnings, fmt.Errorf("staging artifact for signing: %w", err)
		}
	}

	if err := sdk.Sign(ctx, env.Environ(), logOutput, signedPath, keystore); err != nil {
		return "", warnings, err
	}

	return signedPath, warnings, nil
}
