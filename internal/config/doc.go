// Package config loads and validates abra's YAML configuration.
//
// Load reads the file, expands ${ENV_VAR} references, unmarshals with
// yaml.v3, and validates the result. The JWT secret is required and is
// normally supplied through the environment rather than written into the
// file; `abra init` generates a starter config wired that way.
package config
