// Package config loads, normalizes, and validates plexmaint settings.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as PLEXMAINT_LOG_LEVEL.
// The Config type holds the application knobs: where state and logs live, the
// server address offered as a default when building a credential record, and
// download tuning. Credentials themselves live in the JSON record managed by
// the credentials package.
//
// Always obtain settings through this package so callers receive sanitized
// paths and clear validation errors that name the offending key.
package config
