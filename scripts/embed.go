// Package scripts embeds the built-in Risor render scripts.
package scripts

import "embed"

// FS holds the embedded render scripts, addressable as
// "render/<name>.risor".
//
//go:embed render/*.risor
var FS embed.FS
