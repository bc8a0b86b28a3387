// Package config loads ytqueue settings from a TOML file.
//
// Defaults cover every field, so a missing file is not an error. Loaded
// values are normalized (paths expanded, worker count clamped) and validated
// before use.
package config
