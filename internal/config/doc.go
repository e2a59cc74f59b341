// Package config loads the fusecompat mount configuration.
//
// Sources, highest precedence first: command-line flags bound by the caller,
// FUSECOMPAT_* environment variables, an optional YAML config file and the
// built-in defaults. The decoded Config is validated with
// go-playground/validator before it is handed back.
package config
