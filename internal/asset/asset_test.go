package asset_test

import (
	"testing"
	"time"

	"github.com/raoulx24/framesync/internal/asset"
	"github.com/raoulx24/framesync/internal/fs"
	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "assets/model.fbx", want: "model"},
		{path: "scene.tar.gz", want: "scene.tar"},
		{path: "noext", want: "noext"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, asset.Name(tt.path))
		})
	}
}

func TestVersionName_RoundTrips(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.UTC)

	name := asset.VersionName(at)
	got, ok := asset.ParseVersion(name)

	assert.Equal(t, "2026-03-04T05-06-07.890", name)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))
}

func TestParseVersion_Invalid(t *testing.T) {
	_, ok := asset.ParseVersion(".tmp-2026")

	assert.False(t, ok)
}

func TestFromFileInfo(t *testing.T) {
	mod := time.Unix(1000, 0)

	got := asset.FromFileInfo(fs.FileInfo{Path: "/in/model.fbx", Size: 12, MTime: mod})

	assert.Equal(t, asset.Artifact{Name: "model.fbx", Size: 12, ModTime: mod}, got)
}
