package credentials_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sagarc03/dirserve"
	"github.com/sagarc03/dirserve/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSHA256 = "9f735e0df9a1ddc702bf0a1a7b83033f9f7153a00c29de82cedadc9957289b05"

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Empty(t *testing.T) {
	t.Parallel()

	spec, err := credentials.Load(credentials.Config{})
	require.NoError(t, err)
	assert.False(t, spec.Required())
}

func TestLoad_InlineSpec(t *testing.T) {
	t.Parallel()

	spec, err := credentials.Load(credentials.Config{Spec: "testuser:sha256:" + testSHA256})
	require.NoError(t, err)
	assert.Equal(t, dirserve.AuthHashed, spec.Mode())
	assert.True(t, spec.Verify("testuser", "testpassword"))
}

func TestLoad_InvalidInlineSpec(t *testing.T) {
	t.Parallel()

	_, err := credentials.Load(credentials.Config{Spec: "nocolon"})
	assert.ErrorIs(t, err, dirserve.ErrInvalidInput)
}

func TestLoad_FileTakesPrecedence(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, `{"username": "fileuser", "password": "filepass"}`)

	spec, err := credentials.Load(credentials.Config{Spec: "inline:secret", File: path})
	require.NoError(t, err)
	assert.True(t, spec.Verify("fileuser", "filepass"))
	assert.False(t, spec.Verify("inline", "secret"))
}

func TestLoadCredentialFromFile_Hashed(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, `{"username": "testuser", "algorithm": "sha256", "digest": "`+testSHA256+`"}`)

	c, err := credentials.LoadCredentialFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "testuser", c.Username)
	assert.Equal(t, "sha256", c.Algorithm)

	spec, err := c.AuthSpec()
	require.NoError(t, err)
	assert.Equal(t, dirserve.AuthHashed, spec.Mode())
	assert.True(t, spec.Verify("testuser", "testpassword"))
}

func TestLoadCredentialFromFile_NotFound(t *testing.T) {
	t.Parallel()

	_, err := credentials.LoadCredentialFromFile("/nonexistent/path/credentials.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read credentials file")
}

func TestLoadCredentialFromFile_InvalidJSON(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, `{not valid json}`)

	_, err := credentials.LoadCredentialFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse credentials file")
}

func TestCredential_AuthSpec_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cred credentials.Credential
	}{
		{name: "missing username", cred: credentials.Credential{Password: "secret"}},
		{name: "missing password", cred: credentials.Credential{Username: "user"}},
		{name: "password and digest", cred: credentials.Credential{Username: "user", Password: "x", Algorithm: "sha256", Digest: testSHA256}},
		{name: "unknown algorithm", cred: credentials.Credential{Username: "user", Algorithm: "md5", Digest: testSHA256}},
		{name: "digest without algorithm", cred: credentials.Credential{Username: "user", Digest: testSHA256}},
		{name: "short digest", cred: credentials.Credential{Username: "user", Algorithm: "sha512", Digest: testSHA256}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.cred.AuthSpec()
			assert.ErrorIs(t, err, dirserve.ErrInvalidInput)
		})
	}
}
