package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"

	"volume-bridge/internal/domain"
)

// FileService implements domain.AudioService over a JSON stream table on
// disk, so several processes can share one device. Watch turns changes of
// the file into broadcasts.
type FileService struct {
	receiverSet

	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// persistedStream represents one stream entry in the JSON file.
type persistedStream struct {
	Level int `json:"level"`
	Max   int `json:"max"`
}

// persistedData represents the JSON structure on disk, keyed by stream id.
type persistedData struct {
	Streams map[string]persistedStream `json:"streams"`
}

// NewFileService creates a file-backed audio service. Parent directories are
// created automatically and a missing file is seeded with DefaultMaxVolumes.
func NewFileService(path string, logger *slog.Logger) (*FileService, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	f := &FileService{path: path, logger: logger}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		seed := persistedData{Streams: make(map[string]persistedStream)}
		for stream, limit := range DefaultMaxVolumes {
			seed.Streams[streamKey(stream)] = persistedStream{Level: limit / 2, Max: limit}
		}
		if err := f.save(seed); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Path returns the state file location.
func (f *FileService) Path() string {
	return f.path
}

// StreamVolume reads the raw level of stream from disk.
func (f *FileService) StreamVolume(stream domain.Stream) (int, error) {
	entry, err := f.entry(stream)
	if err != nil {
		return 0, err
	}
	return entry.Level, nil
}

// StreamMaxVolume reads the maximum raw level of stream from disk.
func (f *FileService) StreamMaxVolume(stream domain.Stream) (int, error) {
	entry, err := f.entry(stream)
	if err != nil {
		return 0, err
	}
	return entry.Max, nil
}

// SetStreamVolume persists level, clamped to the stream range. Receivers are
// notified by Watch once the file changes, not by this call.
func (f *FileService) SetStreamVolume(stream domain.Stream, level int, flags domain.Flags) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	entry, ok := data.Streams[streamKey(stream)]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownStream, stream)
	}
	entry.Level = min(max(level, 0), entry.Max)
	data.Streams[streamKey(stream)] = entry
	f.logger.Debug("stream volume written", "stream", stream.String(), "level", entry.Level, "flags", int(flags))
	return f.save(data)
}

// Watch broadcasts to registered receivers whenever the state file is
// written, until ctx is cancelled.
func (f *FileService) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory containing the file (more reliable for renames)
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	go func() {
		defer watcher.Close()
		filename := filepath.Base(f.path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filename {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					f.logger.Debug("state file changed", "file", f.path)
					f.broadcast()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Warn("state watcher error", "error", err)
			}
		}
	}()
	return nil
}

func (f *FileService) entry(stream domain.Stream) (persistedStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return persistedStream{}, err
	}
	entry, ok := data.Streams[streamKey(stream)]
	if !ok {
		return persistedStream{}, fmt.Errorf("%w: %d", domain.ErrUnknownStream, stream)
	}
	return entry, nil
}

func (f *FileService) load() (persistedData, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return persistedData{}, fmt.Errorf("read state: %w", err)
	}
	var data persistedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return persistedData{}, fmt.Errorf("unmarshal state: %w", err)
	}
	if data.Streams == nil {
		data.Streams = make(map[string]persistedStream)
	}
	return data, nil
}

func (f *FileService) save(data persistedData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	// Atomic write
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename tmp: %w", err)
	}
	return nil
}

func streamKey(stream domain.Stream) string {
	return strconv.Itoa(int(stream))
}
