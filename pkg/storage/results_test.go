package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adlibscraper/pkg/models"
)

func TestResultsWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "ad_details.json")
	w := NewResultsWriter(path)

	records := []models.AdRecord{
		{
			ID:         "111",
			DetailURL:  "https://www.linkedin.com/ad-library/detail/111",
			Advertiser: "Acme",
			AdType:     "Video Ad",
			Assets: models.AssetBundle{
				VideoURLs: []string{"https://cdn.example.com/v.mp4"},
			},
		},
		{
			ID:    "222",
			Error: "detail fetch failed",
		},
	}

	require.NoError(t, w.Write(records))

	loaded, err := w.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "111", loaded[0].ID)
	assert.Equal(t, "Acme", loaded[0].Advertiser)
	assert.Equal(t, records[0].Assets.VideoURLs, loaded[0].Assets.VideoURLs)
	assert.Equal(t, "detail fetch failed", loaded[1].Error)
}

func TestResultsWriterReplacesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ad_details.json")
	w := NewResultsWriter(path)

	require.NoError(t, w.Write([]models.AdRecord{{ID: "1"}}))
	require.NoError(t, w.Write([]models.AdRecord{{ID: "1"}, {ID: "2"}}))

	loaded, err := w.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	// Atomic write leaves no temp file
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestResultsWriterEmptyCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ad_details.json")
	w := NewResultsWriter(path)

	require.NoError(t, w.Write(nil))

	loaded, err := w.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
