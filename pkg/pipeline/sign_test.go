package pipeline

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignArtifactReleaseRequiresAllCredentials(t *testing.T) {
	env := testEnvironment(t)

	tests := []struct {
		name        string
		credentials SigningCredentials
	}{
		{name: "all empty", credentials: SigningCredentials{}},
		{
			name: "missing store password",
			credentials: SigningCredentials{
				KeystorePath: "/keys/release.jks",
				KeyPassword:  "key",
				KeyAlias:     "release",
			},
		},
		{
			name: "missing alias",
			credentials: SigningCredentials{
				KeystorePath:  "/keys/release.jks",
				StorePassword: "store",
				KeyPassword:   "key",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			options := BuildOptions{SignMode: SignModeRelease, Signing: tt.credentials}

			_, _, err := signArtifact(context.Background(), runner, env, "/out/app.apk", options, io.Discard)

			assert.ErrorContains(t, err, "release signing requires")
			// Credential validation happens before any tool runs.
			assert.Empty(t, runner.calls)
		})
	}
}
