// Package config loads the server configuration.
//
// Load layers four sources, each overriding the one before it:
//
//  1. built-in defaults (see Defaults)
//  2. YAML files, merged in order; ./dirserve.yaml when none are named
//  3. DIRSERVE_* environment variables
//  4. command-line flags the user set
//
// Environment variables are the upper-cased key with dots turned into
// underscores, so upload.max_size is DIRSERVE_UPLOAD_MAX_SIZE.
//
// The result is checked with go-playground/validator and failures name the
// YAML key:
//
//	validate config: invalid configuration: server.port must be at most 65535
//
// Load does not parse the auth spec; the credentials package does that when
// the server starts. The loaded Config travels to subcommands through
// WithContext and FromContext.
package config
