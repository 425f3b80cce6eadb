// Package configs provides the embedded configuration template for
// mismisquote.
//
// The template is embedded at build time with //go:embed, so it ships in
// every distribution, including plain `go install` builds. It is written
// by `mismisquote config init` as the project config (.mismisquote.yaml);
// the user config (~/.config/mismisquote/config.yaml) reads the same
// schema, see internal/config.
//
// The commented values mirror the built-in defaults, so a freshly written
// file changes nothing until edited.
package configs

import _ "embed"

// ProjectTemplate is the commented default configuration written by
// `mismisquote config init`.
//
//go:embed config.example.yaml
var ProjectTemplate string
