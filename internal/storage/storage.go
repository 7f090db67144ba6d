// Package storage persists attachment content to a local directory,
// one file per attachment under a generated name.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

// maxNameLen mirrors the common filesystem limit for a single path
// component.
const maxNameLen = 255

// extUnsafe strips everything from an extension except letters, digits,
// and the leading dot.
var extUnsafe = regexp.MustCompile(`[^a-zA-Z0-9.]`)

// Dir is an attachment storage directory. The zero value is unusable;
// construct with New, which validates the path up front so the fetch
// path never has to.
type Dir struct {
	path string
}

// New returns a Dir rooted at path. The directory must already exist.
func New(path string) (*Dir, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("attachments directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("attachments directory %s: not a directory", path)
	}
	return &Dir{path: path}, nil
}

// Path returns the storage directory root.
func (d *Dir) Path() string {
	return d.path
}

// Save writes data to a new file and returns its full path. The on-disk
// name is a generated token: the display name may be hostile, so only
// its sanitized extension survives.
func (d *Dir) Save(displayName string, data []byte) (string, error) {
	name := truncateName(uuid.New().String() + safeExt(displayName))
	full := filepath.Join(d.path, name)

	if err := os.WriteFile(full, data, 0o600); err != nil {
		return "", fmt.Errorf("writing attachment file %s: %w", name, err)
	}
	return full, nil
}

// safeExt extracts a filesystem-safe extension from a display name.
func safeExt(name string) string {
	ext := extUnsafe.ReplaceAllString(filepath.Ext(name), "")
	if ext == "." || ext == "" {
		return ""
	}
	if ext[0] != '.' {
		return "." + ext
	}
	return ext
}

// truncateName enforces the name length limit, trimming the base name
// before touching the extension.
func truncateName(name string) string {
	if len(name) <= maxNameLen {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) >= maxNameLen {
		return name[:maxNameLen]
	}
	base := name[:len(name)-len(ext)]
	return base[:maxNameLen-len(ext)] + ext
}
