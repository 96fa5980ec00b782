package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrNoProfiles         = errors.New("no profiles configured")
	ErrNoDefaultProfile   = errors.New("no default profile; pass --profile or run 'configure set-default'")
	ErrInvalidProfileName = errors.New("invalid profile name")
)

// Errors for configuration validation.
var (
	ErrConfigRequired   = errors.New("config is required")
	ErrPasswordRequired = errors.New("password is required when username is set")
)

// Errors for input validation.
var (
	ErrEmptyPath = errors.New("path is required")
	ErrNotDir    = errors.New("remote path is not a directory")
)

// ErrNoUploadForm is returned when the listing page has no upload form,
// which means the server was started without uploads.
var ErrNoUploadForm = errors.New("server does not accept uploads")

// ErrIsDir is returned when a download targets a directory.
var ErrIsDir = errors.New("remote path is a directory")
