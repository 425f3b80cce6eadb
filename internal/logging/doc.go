// Package logging provides file-based structured logging with rotation for
// MisMisQuote. Logs are JSON lines written to ~/.mismisquote/logs/ so that
// scan-quality signals (unknown symbols, zero-match scans) never mix with
// match output on stdout.
//
// With --debug the level drops to debug and log lines are mirrored to stderr.
package logging
