// Package model defines the domain data structures shared across the queue:
// jobs and their lifecycle states, partial job updates, media formats,
// history entries, and the error markers used to classify job failures.
// Jobs are plain values; the registry owns the canonical copy.
package model
