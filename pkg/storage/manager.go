package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"adlibscraper/pkg/models"
)

// kindDirs maps asset kinds to their subdirectory under an ad's folder
var kindDirs = map[models.AssetKind]string{
	models.AssetKindLogo:   "logo",
	models.AssetKindImage:  "images",
	models.AssetKindVideo:  "videos",
	models.AssetKindPoster: "posters",
}

// Manager lays out the per-run asset directory tree:
// <assetsDir>/<adID>/{logo,images,videos,posters}/<filename>
type Manager struct {
	assetsDir string
}

// NewManager creates a storage manager rooted at the assets directory
func NewManager(assetsDir string) (*Manager, error) {
	if err := os.MkdirAll(assetsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create assets directory: %w", err)
	}
	return &Manager{assetsDir: assetsDir}, nil
}

// AssetPath returns the target path for an asset without creating it
func (m *Manager) AssetPath(adID string, kind models.AssetKind, filename string) string {
	return filepath.Join(m.assetsDir, adID, kindDirs[kind], filename)
}

// SaveAsset writes asset data to its deterministic path. The write goes
// through a temp file and rename so a partial download never leaves a
// truncated file behind.
func (m *Manager) SaveAsset(adID string, kind models.AssetKind, filename string, r io.Reader) (string, error) {
	target := m.AssetPath(adID, kind, filename)

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("failed to create asset directory: %w", err)
	}

	tempFile := target + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to save asset data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return target, nil
}

// Exists checks whether an asset file is already on disk
func (m *Manager) Exists(adID string, kind models.AssetKind, filename string) bool {
	_, err := os.Stat(m.AssetPath(adID, kind, filename))
	return err == nil
}

// GetAssetsDir returns the root assets directory
func (m *Manager) GetAssetsDir() string {
	return m.assetsDir
}
