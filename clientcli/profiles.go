package clientcli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is used when neither a profile, the environment nor a flag
// names a server.
const DefaultEndpoint = "http://localhost:8080"

// Environment variables read by the client.
const (
	EnvEndpoint   = "DIRSERVE_ENDPOINT"
	EnvUsername   = "DIRSERVE_USERNAME"
	EnvPassword   = "DIRSERVE_PASSWORD"
	EnvProfile    = "DIRSERVE_PROFILE"
	EnvConfigPath = "DIRSERVE_CONFIG"
)

// Profile is one saved server. Name is the key in ProfileFile.Profiles and is
// not repeated inside the entry.
type Profile struct {
	Name     string `yaml:"-"`
	Endpoint string `yaml:"endpoint"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	// PasswordEnv names an environment variable holding the password, so the
	// file does not have to store it.
	PasswordEnv string `yaml:"password_env,omitempty"`
}

// Config returns the connection settings the profile describes. A set
// PasswordEnv variable takes precedence over Password.
func (p Profile) Config() *Config {
	cfg := &Config{
		Endpoint: p.Endpoint,
		Username: p.Username,
		Password: p.Password,
	}
	if p.PasswordEnv != "" {
		if v, ok := os.LookupEnv(p.PasswordEnv); ok {
			cfg.Password = v
		}
	}
	return cfg
}

// ProfileFile is the client configuration file.
type ProfileFile struct {
	// Default is the profile used when none is named.
	Default  string             `yaml:"default,omitempty"`
	Profiles map[string]Profile `yaml:"profiles"`
}

// DefaultName returns the profile used when none is named: Default, or the
// only profile when exactly one exists.
func (f *ProfileFile) DefaultName() string {
	if f.Default != "" {
		return f.Default
	}
	if len(f.Profiles) == 1 {
		for name := range f.Profiles {
			return name
		}
	}
	return ""
}

// Lookup returns the named profile, or the default one when name is empty.
func (f *ProfileFile) Lookup(name string) (Profile, error) {
	if len(f.Profiles) == 0 {
		return Profile{}, ErrNoProfiles
	}

	if name == "" {
		name = f.DefaultName()
		if name == "" {
			return Profile{}, ErrNoDefaultProfile
		}
	}

	p, ok := f.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	p.Name = name
	return p, nil
}

// Put stores p under p.Name, replacing any profile with that name. The first
// profile stored in an empty file becomes the default.
func (f *ProfileFile) Put(p Profile) (replaced bool, err error) {
	if err := validateProfileName(p.Name); err != nil {
		return false, err
	}

	if f.Profiles == nil {
		f.Profiles = make(map[string]Profile)
	}
	_, replaced = f.Profiles[p.Name]
	f.Profiles[p.Name] = p

	if f.Default == "" && len(f.Profiles) == 1 {
		f.Default = p.Name
	}
	return replaced, nil
}

// Delete removes the named profile. Deleting the default profile leaves the
// file without one.
func (f *ProfileFile) Delete(name string) error {
	if _, ok := f.Profiles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	delete(f.Profiles, name)
	if f.Default == name {
		f.Default = ""
	}
	return nil
}

// SetDefault makes name the default profile.
func (f *ProfileFile) SetDefault(name string) error {
	if _, ok := f.Profiles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	f.Default = name
	return nil
}

// List returns every profile ordered by name.
func (f *ProfileFile) List() []Profile {
	out := make([]Profile, 0, len(f.Profiles))
	for name, p := range f.Profiles {
		p.Name = name
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Profile) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Save writes the file to path with owner-only permissions. The content goes
// to a temp file in the same directory first and is renamed into place, so a
// failed save never leaves a truncated config behind.
func (f *ProfileFile) Save(path string) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	return nil
}

// LoadProfileFile reads the profile file at path. A missing file yields an
// error matching fs.ErrNotExist; see OpenProfileFile to treat it as empty.
func LoadProfileFile(path string) (*ProfileFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var f ProfileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if f.Default != "" {
		if _, ok := f.Profiles[f.Default]; !ok {
			return nil, fmt.Errorf("parse config file: default %w: %s", ErrProfileNotFound, f.Default)
		}
	}

	return &f, nil
}

// OpenProfileFile is LoadProfileFile with a missing file read as empty.
func OpenProfileFile(path string) (*ProfileFile, error) {
	f, err := LoadProfileFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &ProfileFile{}, nil
	}
	return f, err
}

// DefaultProfilePath returns ~/.dirserve/config.yaml, or "" when the home
// directory is unknown.
func DefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dirserve", "config.yaml")
}

func validateProfileName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidProfileName, name)
	}
	return nil
}

// Config holds the resolved connection settings for one server.
type Config struct {
	Endpoint string
	Username string
	Password string
}

// Validate checks that a username always comes with a password.
func (c *Config) Validate() error {
	if c.Username != "" && c.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// WithDefaults returns a copy with DefaultEndpoint filled in when unset.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &cfg
}

// HasAuth reports whether requests should carry Basic credentials.
func (c *Config) HasAuth() bool {
	return c.Username != ""
}

// Overlay returns a copy of c with every non-empty field of o applied on top.
// A nil o returns an unchanged copy.
func (c *Config) Overlay(o *Config) *Config {
	cfg := *c
	if o == nil {
		return &cfg
	}
	if o.Endpoint != "" {
		cfg.Endpoint = o.Endpoint
	}
	if o.Username != "" {
		cfg.Username = o.Username
	}
	if o.Password != "" {
		cfg.Password = o.Password
	}
	return &cfg
}

// EnvConfig reads connection settings from DIRSERVE_ENDPOINT,
// DIRSERVE_USERNAME and DIRSERVE_PASSWORD.
func EnvConfig() *Config {
	return &Config{
		Endpoint: os.Getenv(EnvEndpoint),
		Username: os.Getenv(EnvUsername),
		Password: os.Getenv(EnvPassword),
	}
}
