package audiocache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"quill/internal/config"
	"quill/internal/fileutil"
	"quill/internal/logging"
)

const (
	// freeSpaceFloor is the minimum free-space ratio we allow before pruning (e.g., 0.20 => 80% full).
	freeSpaceFloor = 0.20
)

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// Manager handles storing and pruning downloaded audio keyed by source URL.
type Manager struct {
	root     string
	maxBytes int64
	logger   *slog.Logger
	statfs   statfsFunc
}

// Stats describes current cache usage.
type Stats struct {
	Entries        int
	TotalBytes     int64
	MaxBytes       int64
	FreeBytes      uint64
	TotalFSBytes   uint64
	FreeRatio      float64
	EntrySummaries []EntrySummary
}

// EntrySummary surfaces human-friendly details about a cache entry so the
// CLI can show which downloads are currently stored.
type EntrySummary struct {
	Directory  string
	Title      string
	AudioFile  string
	SizeBytes  int64
	ModifiedAt time.Time
}

// Hit describes a cache entry restored into a staging directory.
type Hit struct {
	Path  string
	Title string
}

// NewManager builds a cache manager when enabled; returns nil when caching is
// disabled or misconfigured.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if cfg == nil || !cfg.AudioCache.Enabled {
		return nil
	}
	root := strings.TrimSpace(cfg.AudioCache.Dir)
	if root == "" || cfg.AudioCache.MaxGiB <= 0 {
		return nil
	}
	maxBytes := int64(cfg.AudioCache.MaxGiB) * 1024 * 1024 * 1024
	manager := &Manager{
		root:     root,
		maxBytes: maxBytes,
		statfs:   realStatfs,
	}
	manager.SetLogger(logger)
	return manager
}

// SetLogger refreshes the manager's logging destination.
func (m *Manager) SetLogger(logger *slog.Logger) {
	if m == nil {
		return
	}
	m.logger = logging.NewComponentLogger(logger, "audiocache")
}

// Path returns the cache directory for the given source URL.
func (m *Manager) Path(url string) string {
	if m == nil {
		return ""
	}
	return filepath.Join(m.root, cacheKey(url))
}

// Store copies a downloaded audio file into the cache and triggers pruning.
// Concurrent runs against the same URL serialize on a per-entry file lock.
func (m *Manager) Store(ctx context.Context, url, title, audioPath string) error {
	if m == nil {
		return nil
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("audiocache: empty source url")
	}
	src := strings.TrimSpace(audioPath)
	if src == "" {
		return errors.New("audiocache: empty audio path")
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("audiocache: inspect audio file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("audiocache: audio path %q is a directory", src)
	}
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return fmt.Errorf("audiocache: ensure cache root: %w", err)
	}

	dest := m.Path(url)
	lock := flock.New(dest + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("audiocache: acquire entry lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	// Replace any existing entry for this URL.
	if err := os.RemoveAll(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("audiocache: remove existing cache entry: %w", err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("audiocache: create cache entry: %w", err)
	}
	audioName := filepath.Base(src)
	if err := fileutil.CopyFileVerified(src, filepath.Join(dest, audioName)); err != nil {
		return fmt.Errorf("audiocache: copy entry: %w", err)
	}
	if err := m.writeMetadata(dest, EntryMetadata{
		Version:   metadataVersion,
		SourceURL: url,
		Title:     strings.TrimSpace(title),
		AudioFile: audioName,
		FetchedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}
	_ = os.Chtimes(dest, time.Now(), time.Now())

	if err := m.prune(ctx, dest); err != nil {
		return fmt.Errorf("audiocache: prune after store: %w", err)
	}
	m.logger.InfoContext(ctx, "stored audio cache entry",
		logging.String("cache_dir", dest),
		logging.String("source_url", url),
	)
	return nil
}

// Restore copies the cached audio for url into destDir when present.
// Returns false when there is no usable entry.
func (m *Manager) Restore(ctx context.Context, url, destDir string) (Hit, bool, error) {
	var hit Hit
	if m == nil {
		return hit, false, nil
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return hit, false, errors.New("audiocache: empty source url")
	}
	destDir = strings.TrimSpace(destDir)
	if destDir == "" {
		return hit, false, errors.New("audiocache: empty destination directory")
	}
	src := m.Path(url)
	if !existsNonEmptyDir(src) {
		return hit, false, nil
	}

	lock := flock.New(src + ".lock")
	if err := lock.RLock(); err != nil {
		return hit, false, fmt.Errorf("audiocache: acquire entry lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	meta, ok, err := LoadMetadata(src)
	if err != nil {
		m.logger.Warn("audiocache: unreadable entry metadata",
			logging.String("cache_dir", src),
			logging.Error(err),
		)
	}
	audioName := strings.TrimSpace(meta.AudioFile)
	if !ok || audioName == "" {
		audioName = firstAudioFile(src)
	}
	if audioName == "" {
		return hit, false, nil
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return hit, false, fmt.Errorf("audiocache: ensure destination dir: %w", err)
	}
	destPath := filepath.Join(destDir, audioName)
	if err := fileutil.CopyFile(filepath.Join(src, audioName), destPath); err != nil {
		return hit, false, fmt.Errorf("audiocache: restore entry: %w", err)
	}
	now := time.Now()
	_ = os.Chtimes(src, now, now)

	m.logger.InfoContext(ctx, "restored audio from cache",
		logging.String("cache_dir", src),
		logging.String("source_url", url),
	)
	return Hit{Path: destPath, Title: meta.Title}, true, nil
}

// Prune removes entries based on size and free-space thresholds.
func (m *Manager) Prune(ctx context.Context, keepPath string) error {
	if m == nil {
		return nil
	}
	return m.prune(ctx, keepPath)
}

// Stats returns current cache usage and filesystem free-space info.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	if m == nil {
		return s, nil
	}
	entries, totalSize, err := m.scan()
	if err != nil {
		return s, err
	}
	totalFS, freeFS, err := m.statfs(m.root)
	if err != nil {
		return s, fmt.Errorf("audiocache: statfs: %w", err)
	}
	ratio := 1.0
	if totalFS > 0 {
		ratio = float64(freeFS) / float64(totalFS)
	}
	details := make([]EntrySummary, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		summary := EntrySummary{
			Directory:  entry.path,
			SizeBytes:  entry.sizeBytes,
			ModifiedAt: entry.modTime,
		}
		if meta, ok, err := LoadMetadata(entry.path); err == nil && ok {
			summary.Title = meta.Title
			summary.AudioFile = meta.AudioFile
		}
		if summary.AudioFile == "" {
			summary.AudioFile = firstAudioFile(entry.path)
		}
		details = append(details, summary)
	}
	s = Stats{
		Entries:        len(entries),
		TotalBytes:     totalSize,
		MaxBytes:       m.maxBytes,
		FreeBytes:      freeFS,
		TotalFSBytes:   totalFS,
		FreeRatio:      ratio,
		EntrySummaries: details,
	}
	if len(entries) == 0 {
		m.logger.DebugContext(ctx, "audio cache empty")
	}
	return s, nil
}

// prune removes oldest cache entries until both size and free-space thresholds are satisfied.
func (m *Manager) prune(ctx context.Context, keepPath string) error {
	entries, totalSize, err := m.scan()
	if err != nil {
		return err
	}

	for len(entries) > 0 {
		freeOK, err := m.freeSpaceOK()
		if err != nil {
			return err
		}
		if totalSize <= m.maxBytes && freeOK {
			return nil
		}
		// Remove oldest entry.
		oldest := entries[0]
		if samePath(oldest.path, keepPath) && len(entries) == 1 {
			// Only the active entry exists; cannot prune further.
			return fmt.Errorf("audiocache: cache over limits and active entry %q cannot be pruned", keepPath)
		}
		if samePath(oldest.path, keepPath) {
			entries = entries[1:]
			continue
		}
		if err := os.RemoveAll(oldest.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("audiocache: remove %q: %w", oldest.path, err)
		}
		_ = os.Remove(oldest.path + ".lock")
		m.logger.InfoContext(ctx, "pruned audio cache entry",
			logging.String("cache_dir", oldest.path),
			logging.Int64("entry_size_bytes", oldest.sizeBytes),
		)
		totalSize -= oldest.sizeBytes
		entries = entries[1:]
	}
	return nil
}

type cacheEntry struct {
	path      string
	sizeBytes int64
	modTime   time.Time
}

func (m *Manager) scan() ([]cacheEntry, int64, error) {
	entries := make([]cacheEntry, 0)
	var total int64
	rootEntries, err := os.ReadDir(m.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, 0, nil
		}
		return nil, 0, fmt.Errorf("audiocache: list root: %w", err)
	}
	for _, entry := range rootEntries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(m.root, entry.Name())
		size, mtime, err := dirSizeAndTime(path)
		if err != nil {
			m.logger.Warn("audiocache: skip entry; excluded from stats and pruning",
				logging.String("cache_dir", path),
				logging.Error(err),
			)
			continue
		}
		total += size
		entries = append(entries, cacheEntry{path: path, sizeBytes: size, modTime: mtime})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].modTime.Before(entries[j].modTime)
	})
	return entries, total, nil
}

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".m4a":  {},
	".mp4":  {},
	".wav":  {},
	".flac": {},
	".ogg":  {},
	".opus": {},
	".aac":  {},
	".webm": {},
}

func firstAudioFile(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	type candidate struct {
		name string
		size int64
	}
	files := make([]candidate, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := audioExtensions[ext]; !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, candidate{name: entry.Name(), size: info.Size()})
	}
	if len(files) == 0 {
		return ""
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].size == files[j].size {
			return files[i].name < files[j].name
		}
		return files[i].size > files[j].size
	})
	return files[0].name
}

func (m *Manager) freeSpaceOK() (bool, error) {
	total, free, err := m.statfs(m.root)
	if err != nil {
		return false, fmt.Errorf("audiocache: statfs: %w", err)
	}
	if total == 0 {
		return true, nil
	}
	ratio := float64(free) / float64(total)
	return ratio >= freeSpaceFloor, nil
}

func cacheKey(url string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(strings.TrimSpace(url))))
}

func samePath(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	ra, errA := filepath.EvalSymlinks(a)
	rb, errB := filepath.EvalSymlinks(b)
	if errA == nil {
		a = ra
	}
	if errB == nil {
		b = rb
	}
	return a == b
}

func dirSizeAndTime(path string) (int64, time.Time, error) {
	var (
		size    int64
		latest  time.Time
		visited = false
	)
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		visited = true
		if !info.IsDir() {
			size += info.Size()
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	if !visited {
		return 0, time.Time{}, errors.New("empty cache entry")
	}
	return size, latest, nil
}

func existsNonEmptyDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}
