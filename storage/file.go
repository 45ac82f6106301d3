package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/filatag/spool-scanner/interfaces"
)

// FileStore keeps the scan log in a single JSON file. The full log is
// loaded at startup; appends rewrite the file atomically via a temp file
// and rename.
type FileStore struct {
	path        string
	log         *slog.Logger
	locationURI string

	mu      sync.Mutex
	entries []interfaces.ScanEntry
	index   map[string]struct{}
}

// NewFileStore opens or creates a file-backed scan log at path.
func NewFileStore(path string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	s := &FileStore{
		path:        path,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", path),
		index:       make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fresh log.
	case err != nil:
		return nil, fmt.Errorf("failed to read scan log: %w", err)
	default:
		if err := json.Unmarshal(data, &s.entries); err != nil {
			return nil, fmt.Errorf("failed to parse scan log %s: %w", path, err)
		}
		for _, e := range s.entries {
			s.index[e.DedupeKey()] = struct{}{}
		}
	}

	log.Info("File scan store ready",
		slog.String("path", path), slog.Int("entries", len(s.entries)))
	return s, nil
}

// Append implements interfaces.ScanStore.
func (s *FileStore) Append(ctx context.Context, entry interfaces.ScanEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entry.DedupeKey()
	if _, dup := s.index[key]; dup {
		s.log.Debug("Duplicate scan ignored", slog.String("key", key))
		return false, nil
	}

	s.entries = append(s.entries, entry)
	if err := s.persistLocked(); err != nil {
		// Roll back so a retry can succeed.
		s.entries = s.entries[:len(s.entries)-1]
		return false, err
	}
	s.index[key] = struct{}{}

	s.log.Debug("Scan recorded",
		slog.String("code", entry.Code), slog.String("trayUid", entry.TrayUID))
	return true, nil
}

// List implements interfaces.ScanStore.
func (s *FileStore) List(ctx context.Context) ([]interfaces.ScanEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]interfaces.ScanEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Name returns a unique identifier for this store backend.
func (s *FileStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(s.path))
}

// LocationURI returns the URI that identifies this store.
func (s *FileStore) LocationURI() string {
	return s.locationURI
}

// persistLocked writes the log atomically. Caller holds s.mu.
func (s *FileStore) persistLocked() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scan log: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write scan log: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace scan log: %w", err)
	}
	return nil
}
