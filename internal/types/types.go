// Package types defines every cross‑package data structure used by the lx CLI.
package types

const (
	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatYAML = "yaml"

	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

