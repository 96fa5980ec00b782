package dirserve

import "errors"

var (
	// ErrNotFound is returned when a path is missing or resolves outside the served root
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUploadDisabled is returned when an upload is attempted on a read-only server
	ErrUploadDisabled = errors.New("uploads disabled")
	// ErrConflict is returned when an upload would replace an existing file
	ErrConflict = errors.New("conflict")
	// ErrMalformedMultipart is returned when an upload body cannot be parsed
	ErrMalformedMultipart = errors.New("malformed multipart body")
	// ErrTooLarge is returned when an upload exceeds the configured size limit
	ErrTooLarge = errors.New("upload too large")
)
