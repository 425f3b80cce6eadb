// Package watcher provides debounced watching of an explicit set of
// reference files for live rescanning.
//
// Raw fsnotify events are noisy: editors write in bursts, and many save by
// writing a temporary file and renaming it over the target. Events for the
// same path within the debounce window are coalesced so a scan sees one
// meaningful change:
//   - CREATE + MODIFY = CREATE (file is still new)
//   - CREATE + DELETE = nothing (file never really existed)
//   - MODIFY + DELETE = DELETE (file is gone)
//   - DELETE + CREATE = MODIFY (file was replaced)
//
// The Session ties a compiled matcher to the watched files: it scans each
// file once at startup, rescans on every coalesced change, and reports how
// the match set moved.
package watcher
