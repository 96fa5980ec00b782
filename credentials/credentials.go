// Package credentials loads the server's dirserve.AuthSpec from configuration,
// either inline as a spec string or from a JSON credentials file so that
// passwords do not have to appear on the command line.
package credentials

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sagarc03/dirserve"
)

// Config holds configuration for loading the auth spec.
type Config struct {
	Spec string `mapstructure:"spec"` // user:password, user:sha256:<hex> or user:sha512:<hex>
	File string `mapstructure:"file"` // Path to JSON file containing a Credential
}

// Credential is the on-disk form of an auth spec. Algorithm and Digest are
// used together; otherwise Password is compared in plain text.
type Credential struct {
	Username  string `json:"username"`
	Password  string `json:"password,omitempty"`
	Algorithm string `json:"algorithm,omitempty"`
	Digest    string `json:"digest,omitempty"`
}

// Load builds the AuthSpec described by cfg. The file takes precedence over
// the inline spec when both are set. An empty Config means no authentication.
func Load(cfg Config) (dirserve.AuthSpec, error) {
	if cfg.File != "" {
		c, err := LoadCredentialFromFile(cfg.File)
		if err != nil {
			return dirserve.AuthSpec{}, err
		}
		return c.AuthSpec()
	}

	spec, err := dirserve.ParseAuthSpec(cfg.Spec)
	if err != nil {
		return dirserve.AuthSpec{}, fmt.Errorf("load credentials: %w", err)
	}
	return spec, nil
}

// LoadCredentialFromFile loads a credential from a JSON file:
//
//	{"username": "alice", "algorithm": "sha256", "digest": "9f735e0d..."}
//
// or, for a plain password:
//
//	{"username": "alice", "password": "secret"}
func LoadCredentialFromFile(path string) (Credential, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return Credential{}, fmt.Errorf("read credentials file: %w", err)
	}

	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return Credential{}, fmt.Errorf("parse credentials file: %w", err)
	}

	return c, nil
}

// AuthSpec converts the credential into a validated spec.
func (c Credential) AuthSpec() (dirserve.AuthSpec, error) {
	if c.Algorithm == "" && c.Digest == "" {
		spec, err := dirserve.NewPlainAuth(c.Username, c.Password)
		if err != nil {
			return dirserve.AuthSpec{}, fmt.Errorf("load credentials: %w", err)
		}
		return spec, nil
	}

	if c.Password != "" {
		return dirserve.AuthSpec{}, fmt.Errorf("load credentials: %w: password and digest are mutually exclusive", dirserve.ErrInvalidInput)
	}

	alg, err := dirserve.ParseHashAlgorithm(c.Algorithm)
	if err != nil {
		return dirserve.AuthSpec{}, fmt.Errorf("load credentials: %w", err)
	}

	spec, err := dirserve.NewHashedAuth(c.Username, alg, c.Digest)
	if err != nil {
		return dirserve.AuthSpec{}, fmt.Errorf("load credentials: %w", err)
	}
	return spec, nil
}
