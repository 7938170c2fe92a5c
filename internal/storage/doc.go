// Package storage persists annotation stores between sessions.
//
// A Snapshotter saves and loads whole stores keyed by slice. Two
// implementations are provided: Memory, for single-process use and tests, and
// Redis, which keeps one JSON document per slice under "annotations:<key>"
// with an optional expiry.
//
// A Load that finds nothing returns (nil, nil), so callers can tell "never
// saved" apart from a failure.
package storage
