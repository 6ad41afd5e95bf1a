// Package assets embeds the default word list shipped with the binaries.
package assets

import _ "embed"

// Words is the raw default word list, one entry per line.
// Callers normalize it (see words.Parse).
//
//go:embed words.txt
var Words string
