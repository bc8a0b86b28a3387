package platform

// Package platform contains OS integration helpers: download directory
// discovery, race-safe directory creation, folder name sanitization, and
// lookup of the external tools the fetch engine depends on.
