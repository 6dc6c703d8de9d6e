// Package configs provides the embedded configuration template for
// deepsearch.
//
// The template is embedded at build time with //go:embed so it ships inside
// the binary regardless of how it was installed. `deepsearch config init`
// writes it to disk; internal/config.Load reads the result back with the
// usual defaults → file → env precedence.
//
// To change the template, edit deepsearch.example.yaml and rebuild.
package configs

import _ "embed"

// ConfigTemplate is the annotated configuration file template written by
// `deepsearch config init`. Every key carries its built-in default, so a
// freshly written file changes nothing until edited.
//
//go:embed deepsearch.example.yaml
var ConfigTemplate string
