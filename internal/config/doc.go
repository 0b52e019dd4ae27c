// Package config loads, normalizes, and validates framecut configuration.
//
// Configuration is TOML on disk with defaults applied for every field, path
// expansion for ~-prefixed values, and a validation pass that rejects
// unusable settings before any batch work starts. A sample config is embedded
// for 'framecut config init'.
package config
