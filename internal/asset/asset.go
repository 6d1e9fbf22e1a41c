// Package asset describes imported assets and their on-disk versions.
package asset

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/raoulx24/framesync/internal/fs"
)

// VersionLayout is the directory name format of an asset version.
const VersionLayout = "2006-01-02T15-04-05.000"

// Artifact describes a single source file of an import.
type Artifact struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// FromFileInfo constructs an Artifact from file info.
func FromFileInfo(info fs.FileInfo) Artifact {
	return Artifact{
		Name:    filepath.Base(info.Path),
		ModTime: info.MTime,
		Size:    info.Size,
	}
}

// Name returns the asset name for a source path: its base name without
// extension.
func Name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Version is one imported copy of an asset.
type Version struct {
	Asset     string
	Dir       string
	Timestamp time.Time
}

// VersionName returns the directory name for a version imported at t.
func VersionName(t time.Time) string {
	return t.UTC().Format(VersionLayout)
}

// ParseVersion parses a version directory name.
func ParseVersion(name string) (time.Time, bool) {
	t, err := time.Parse(VersionLayout, name)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
