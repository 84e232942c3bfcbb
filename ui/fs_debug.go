//go:build debug

package ui

import (
	"io/fs"
	"os"
)

// DistFS returns the page assets read live from disk so edits show up without recompiling.
func DistFS() fs.FS {
	return os.DirFS("ui/dist")
}
