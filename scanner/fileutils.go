package scanner

import (
	"path/filepath"
	"strings"
)

// ResolveSlicePath joins a manifest filename onto the image directory.
// Absolute filenames are used as they are.
func ResolveSlicePath(imageDir, filename string) string {
	filename = strings.TrimSpace(filename)
	if filepath.IsAbs(filename) || imageDir == "" {
		return filename
	}
	return filepath.Join(imageDir, filename)
}

// FormatFlag renders a flag the way pandas writes booleans
func FormatFlag(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
