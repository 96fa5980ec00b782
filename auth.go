package dirserve

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// AuthMode selects how credentials are checked.
type AuthMode int

const (
	AuthNone AuthMode = iota
	AuthPlain
	AuthHashed
)

// HashAlgorithm names a supported password digest.
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
	SHA512 HashAlgorithm = "sha512"
)

func (a HashAlgorithm) IsValid() bool {
	switch a {
	case SHA256, SHA512:
		return true
	default:
		return false
	}
}

func (a HashAlgorithm) newHash() hash.Hash {
	if a == SHA512 {
		return sha512.New()
	}
	return sha256.New()
}

func (a HashAlgorithm) hexLen() int {
	return a.newHash().Size() * 2
}

// ParseHashAlgorithm parses "sha256" or "sha512" (case-insensitive).
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	alg := HashAlgorithm(strings.ToLower(s))
	if !alg.IsValid() {
		return "", fmt.Errorf("invalid hash algorithm: %s (valid: sha256, sha512): %w", s, ErrInvalidInput)
	}
	return alg, nil
}

// AuthSpec is the configured credential requirement. The zero value requires
// no authentication. Fields are unexported so a constructed spec can be shared
// by concurrent requests without synchronization.
type AuthSpec struct {
	mode      AuthMode
	username  string
	password  []byte
	algorithm HashAlgorithm
	digest    []byte
}

// NoAuth returns a spec that lets every request through.
func NoAuth() AuthSpec {
	return AuthSpec{}
}

// NewPlainAuth returns a spec comparing against a cleartext password.
func NewPlainAuth(username, password string) (AuthSpec, error) {
	if username == "" {
		return AuthSpec{}, fmt.Errorf("new plain auth: %w: username cannot be empty", ErrInvalidInput)
	}
	if password == "" {
		return AuthSpec{}, fmt.Errorf("new plain auth: %w: password cannot be empty", ErrInvalidInput)
	}
	return AuthSpec{
		mode:     AuthPlain,
		username: username,
		password: []byte(password),
	}, nil
}

// NewHashedAuth returns a spec comparing the digest of the presented password
// against hexDigest. The digest must be hex encoded; case is ignored.
func NewHashedAuth(username string, alg HashAlgorithm, hexDigest string) (AuthSpec, error) {
	if username == "" {
		return AuthSpec{}, fmt.Errorf("new hashed auth: %w: username cannot be empty", ErrInvalidInput)
	}
	if !alg.IsValid() {
		return AuthSpec{}, fmt.Errorf("new hashed auth: %w: unsupported algorithm %q", ErrInvalidInput, alg)
	}

	hexDigest = strings.ToLower(strings.TrimSpace(hexDigest))
	if len(hexDigest) != alg.hexLen() {
		return AuthSpec{}, fmt.Errorf("new hashed auth: %w: %s digest must be %d hex characters", ErrInvalidInput, alg, alg.hexLen())
	}

	digest, err := hex.DecodeString(hexDigest)
	if err != nil {
		return AuthSpec{}, fmt.Errorf("new hashed auth: %w: digest is not valid hex", ErrInvalidInput)
	}

	return AuthSpec{
		mode:      AuthHashed,
		username:  username,
		algorithm: alg,
		digest:    digest,
	}, nil
}

// ParseAuthSpec parses one of:
//   - "" (no authentication)
//   - "user:password"
//   - "user:sha256:<hex digest>"
//   - "user:sha512:<hex digest>"
//
// A password that itself contains colons is accepted in the plain form as long
// as the second segment is not a hash algorithm name.
func ParseAuthSpec(s string) (AuthSpec, error) {
	if s == "" {
		return NoAuth(), nil
	}

	username, rest, ok := strings.Cut(s, ":")
	if !ok {
		return AuthSpec{}, fmt.Errorf("parse auth spec: %w: expected user:password or user:sha256:hash", ErrInvalidInput)
	}

	if algName, digest, hasDigest := strings.Cut(rest, ":"); hasDigest {
		if alg, err := ParseHashAlgorithm(algName); err == nil {
			return NewHashedAuth(username, alg, digest)
		}
	}

	return NewPlainAuth(username, rest)
}

func (s AuthSpec) Mode() AuthMode           { return s.mode }
func (s AuthSpec) Required() bool           { return s.mode != AuthNone }
func (s AuthSpec) Username() string         { return s.username }
func (s AuthSpec) Algorithm() HashAlgorithm { return s.algorithm }

// Verify reports whether the presented credentials satisfy the auth spec. Both the
// username and the password are always compared, and every comparison runs in
// time independent of where the first differing byte is.
func (s AuthSpec) Verify(username, password string) bool {
	switch s.mode {
	case AuthPlain:
		userOK := constantTimeEqual(username, s.username)
		passOK := subtle.ConstantTimeCompare(digestOf(SHA256, password), digestOf(SHA256, string(s.password)))
		return userOK&passOK == 1
	case AuthHashed:
		userOK := constantTimeEqual(username, s.username)
		passOK := subtle.ConstantTimeCompare(digestOf(s.algorithm, password), s.digest)
		return userOK&passOK == 1
	default:
		return false
	}
}

// String renders the auth spec in the form accepted by ParseAuthSpec, with plain
// passwords masked.
func (s AuthSpec) String() string {
	switch s.mode {
	case AuthPlain:
		return s.username + ":****"
	case AuthHashed:
		return s.username + ":" + string(s.algorithm) + ":" + hex.EncodeToString(s.digest)
	default:
		return "none"
	}
}

// HashPassword returns the lowercase hex digest of password.
func HashPassword(alg HashAlgorithm, password string) string {
	return hex.EncodeToString(digestOf(alg, password))
}

// constantTimeEqual hashes both sides first so the comparison does not leak
// the length of the configured value.
func constantTimeEqual(a, b string) int {
	return subtle.ConstantTimeCompare(digestOf(SHA256, a), digestOf(SHA256, b))
}

func digestOf(alg HashAlgorithm, s string) []byte {
	h := alg.newHash()
	_, _ = h.Write([]byte(s))
	return h.Sum(nil)
}
