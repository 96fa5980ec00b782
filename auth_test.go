package dirserve_test

import (
	"strings"
	"testing"

	"github.com/sagarc03/dirserve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSHA256 = "9f735e0df9a1ddc702bf0a1a7b83033f9f7153a00c29de82cedadc9957289b05"
	testSHA512 = "e9e633097ab9ceb3e48ec3f70ee2beba41d05d5420efee5da85f97d97005727587fda33ef4ff2322088f4c79e8133cc9cd9f3512f4d3a303cbdb5bc585415a00"
)

func TestParseHashAlgorithm(t *testing.T) {
	tests := []struct {
		input   string
		want    dirserve.HashAlgorithm
		wantErr bool
	}{
		{input: "sha256", want: dirserve.SHA256},
		{input: "SHA512", want: dirserve.SHA512},
		{input: "Sha256", want: dirserve.SHA256},
		{input: "md5", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := dirserve.ParseHashAlgorithm(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, dirserve.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHashPassword(t *testing.T) {
	assert.Equal(t, testSHA256, dirserve.HashPassword(dirserve.SHA256, "testpassword"))
	assert.Equal(t, testSHA512, dirserve.HashPassword(dirserve.SHA512, "testpassword"))
}

func TestParseAuthSpec(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		mode     dirserve.AuthMode
		username string
		alg      dirserve.HashAlgorithm
		wantErr  bool
	}{
		{name: "empty means none", input: "", mode: dirserve.AuthNone},
		{name: "plain", input: "testuser:testpassword", mode: dirserve.AuthPlain, username: "testuser"},
		{name: "sha256", input: "testuser:sha256:" + testSHA256, mode: dirserve.AuthHashed, username: "testuser", alg: dirserve.SHA256},
		{name: "sha512", input: "testuser:sha512:" + testSHA512, mode: dirserve.AuthHashed, username: "testuser", alg: dirserve.SHA512},
		{name: "uppercase digest", input: "testuser:sha256:" + strings.ToUpper(testSHA256), mode: dirserve.AuthHashed, username: "testuser", alg: dirserve.SHA256},
		{name: "password containing colons", input: "u:pa:ss:word", mode: dirserve.AuthPlain, username: "u"},
		{name: "missing colon", input: "justauser", wantErr: true},
		{name: "empty username", input: ":password", wantErr: true},
		{name: "empty password", input: "user:", wantErr: true},
		{name: "short digest", input: "user:sha256:abcd", wantErr: true},
		{name: "sha512 with sha256 length", input: "user:sha512:" + testSHA256, wantErr: true},
		{name: "non-hex digest", input: "user:sha256:" + strings.Repeat("zz", 32), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := dirserve.ParseAuthSpec(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, dirserve.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mode, spec.Mode())
			assert.Equal(t, tt.username, spec.Username())
			assert.Equal(t, tt.alg, spec.Algorithm())
			assert.Equal(t, tt.mode != dirserve.AuthNone, spec.Required())
		})
	}
}

func TestAuthSpec_Verify(t *testing.T) {
	specs := map[string]string{
		"plain":  "testuser:testpassword",
		"sha256": "testuser:sha256:" + testSHA256,
		"sha512": "testuser:sha512:" + testSHA512,
	}

	for name, raw := range specs {
		t.Run(name, func(t *testing.T) {
			spec, err := dirserve.ParseAuthSpec(raw)
			require.NoError(t, err)

			assert.True(t, spec.Verify("testuser", "testpassword"))
			assert.False(t, spec.Verify("testuser", "wrongpassword"))
			assert.False(t, spec.Verify("wronguser", "testpassword"))
			assert.False(t, spec.Verify("", ""))
			assert.False(t, spec.Verify("testuser", "testpassword "))
			assert.False(t, spec.Verify("testuse", "testpassword"))
		})
	}

	t.Run("no auth never verifies", func(t *testing.T) {
		assert.False(t, dirserve.NoAuth().Verify("anyone", "anything"))
		assert.False(t, dirserve.NoAuth().Required())
	})

	t.Run("digest compared, not literal", func(t *testing.T) {
		spec, err := dirserve.ParseAuthSpec("testuser:sha256:" + testSHA256)
		require.NoError(t, err)
		assert.False(t, spec.Verify("testuser", testSHA256))
	})
}

func TestAuthSpec_String(t *testing.T) {
	plain, err := dirserve.NewPlainAuth("alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice:****", plain.String())
	assert.NotContains(t, plain.String(), "hunter2")

	hashed, err := dirserve.NewHashedAuth("alice", dirserve.SHA256, strings.ToUpper(testSHA256))
	require.NoError(t, err)
	assert.Equal(t, "alice:sha256:"+testSHA256, hashed.String())

	reparsed, err := dirserve.ParseAuthSpec(hashed.String())
	require.NoError(t, err)
	assert.True(t, reparsed.Verify("alice", "testpassword"))

	assert.Equal(t, "none", dirserve.NoAuth().String())
}

func TestNewHashedAuth_InvalidAlgorithm(t *testing.T) {
	_, err := dirserve.NewHashedAuth("alice", dirserve.HashAlgorithm("md5"), testSHA256)
	assert.ErrorIs(t, err, dirserve.ErrInvalidInput)
}
