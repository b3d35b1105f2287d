package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound reports that no archive exists for the requested session.
var ErrNotFound = errors.New("archive not found")

// Store persists uploaded archives and per-chunk summary artifacts.
type Store interface {
	SaveArchive(sessionID string, doc *Archive) error
	LoadArchive(sessionID string) (*Archive, error)
	SaveChunkSummary(sessionID string, index int, summary string) error
	Cleanup(sessionID string) error
}

// FileStore keeps every artifact as a flat file under one directory, with a
// write-through cache of parsed archives. Summaries are discrete files keyed
// by session id and chunk index so a synthesis run is auditable afterwards.
type FileStore struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*Archive
}

// NewFileStore creates the artifact directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir, cache: make(map[string]*Archive)}, nil
}

func (s *FileStore) archivePath(sessionID string) string {
	return filepath.Join(s.dir, "full_history_"+sessionID+".json")
}

func (s *FileStore) summaryPath(sessionID string, index int) string {
	return filepath.Join(s.dir, fmt.Sprintf("summary_%s_%d.txt", sessionID, index))
}

// SaveArchive writes the full history document and caches the parsed form.
func (s *FileStore) SaveArchive(sessionID string, doc *Archive) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	if err := os.WriteFile(s.archivePath(sessionID), data, 0o644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	s.mu.Lock()
	s.cache[sessionID] = doc
	s.mu.Unlock()
	return nil
}

// LoadArchive returns the cached archive, falling back to the on-disk copy
// when the cache was evicted by a restart.
func (s *FileStore) LoadArchive(sessionID string) (*Archive, error) {
	s.mu.RLock()
	doc, ok := s.cache[sessionID]
	s.mu.RUnlock()
	if ok {
		return doc, nil
	}

	data, err := os.ReadFile(s.archivePath(sessionID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}

	doc = &Archive{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode archive: %w", err)
	}

	s.mu.Lock()
	s.cache[sessionID] = doc
	s.mu.Unlock()
	return doc, nil
}

// SaveChunkSummary persists one chunk summary. Index is 1-based.
func (s *FileStore) SaveChunkSummary(sessionID string, index int, summary string) error {
	if err := os.WriteFile(s.summaryPath(sessionID, index), []byte(summary), 0o644); err != nil {
		return fmt.Errorf("write chunk summary %d: %w", index, err)
	}
	return nil
}

// Cleanup removes the archive and every chunk summary for the session.
// Cleaning an already-clean session is not an error.
func (s *FileStore) Cleanup(sessionID string) error {
	s.mu.Lock()
	delete(s.cache, sessionID)
	s.mu.Unlock()

	pattern := filepath.Join(s.dir, fmt.Sprintf("summary_%s_*.txt", sessionID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("list chunk summaries: %w", err)
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", filepath.Base(path), err)
		}
	}

	if err := os.Remove(s.archivePath(sessionID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove archive: %w", err)
	}
	return nil
}
