package audiocache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quill/internal/fileutil"
)

const (
	metadataVersion  = 1
	metadataFileName = "quill.cache.json"
)

// EntryMetadata captures source details for a cached download so restores can
// report the media title without re-running the downloader.
type EntryMetadata struct {
	Version   int       `json:"version"`
	SourceURL string    `json:"source_url"`
	Title     string    `json:"title,omitempty"`
	AudioFile string    `json:"audio_file"`
	FetchedAt time.Time `json:"fetched_at"`
}

func (m *Manager) writeMetadata(cacheDir string, meta EntryMetadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("audiocache: encode metadata: %w", err)
	}
	if err := fileutil.WriteFileAtomic(metadataPath(cacheDir), payload, 0o644); err != nil {
		return fmt.Errorf("audiocache: write metadata: %w", err)
	}
	return nil
}

// LoadMetadata reads cached metadata for an audio cache entry. The boolean
// reports whether a metadata file was present at all.
func LoadMetadata(cacheDir string) (EntryMetadata, bool, error) {
	cacheDir = strings.TrimSpace(cacheDir)
	if cacheDir == "" {
		return EntryMetadata{}, false, errors.New("audiocache: metadata cache dir is empty")
	}
	payload, err := os.ReadFile(metadataPath(cacheDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return EntryMetadata{}, false, nil
		}
		return EntryMetadata{}, false, fmt.Errorf("audiocache: read metadata: %w", err)
	}
	var meta EntryMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return EntryMetadata{}, true, fmt.Errorf("audiocache: decode metadata: %w", err)
	}
	if meta.Version != metadataVersion {
		return EntryMetadata{}, true, fmt.Errorf("audiocache: unsupported metadata version %d", meta.Version)
	}
	return meta, true, nil
}

func metadataPath(cacheDir string) string {
	return filepath.Join(cacheDir, metadataFileName)
}
