// Package web embeds the browser UI.
package web

import _ "embed"

// IndexHTML is the player and control page served at /.
//
//go:embed index.html
var IndexHTML []byte
