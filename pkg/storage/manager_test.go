package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adlibscraper/pkg/models"
)

func TestNewManagerCreatesRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "assets")

	_, err := NewManager(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestAssetPathLayout(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		kind   models.AssetKind
		subdir string
	}{
		{models.AssetKindLogo, "logo"},
		{models.AssetKindImage, "images"},
		{models.AssetKindVideo, "videos"},
		{models.AssetKindPoster, "posters"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			path := m.AssetPath("42", tt.kind, "file.bin")
			assert.Equal(t, filepath.Join(m.GetAssetsDir(), "42", tt.subdir, "file.bin"), path)
		})
	}
}

func TestSaveAsset(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	path, err := m.SaveAsset("42", models.AssetKindImage, "banner.jpg", strings.NewReader("image-data"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "image-data", string(data))

	// No temp file left behind
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	assert.True(t, m.Exists("42", models.AssetKindImage, "banner.jpg"))
	assert.False(t, m.Exists("42", models.AssetKindImage, "other.jpg"))
}

func TestSaveAssetOverwrites(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = m.SaveAsset("42", models.AssetKindImage, "banner.jpg", strings.NewReader("old"))
	require.NoError(t, err)

	path, err := m.SaveAsset("42", models.AssetKindImage, "banner.jpg", strings.NewReader("new"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}
