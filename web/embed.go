// Package web provides the embedded preview page served by pixconv-server.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var staticFS embed.FS

// StaticFS returns a filesystem rooted at the static/ directory so files
// are served from /.
func StaticFS() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}
