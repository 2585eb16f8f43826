package util

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// NewFileName returns a random file name with the given extension (".mp3", "wav").
func NewFileName(ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		return uuid.NewString()
	}
	return uuid.NewString() + "." + ext
}

// SafeFileName reports whether name is a bare file name without any path
// component, suitable for lookups in a flat artifact directory.
func SafeFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
