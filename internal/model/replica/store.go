package replica

import "sync"

// Store exposes published persona profiles to the chat path.
type Store interface {
	Get(sessionID string) (Profile, bool)
	Put(sessionID string, profile Profile)
	Delete(sessionID string)
}

// MemoryStore implements Store with a mutex-guarded map.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryStore returns an empty profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

// Get looks up the profile for a session.
func (s *MemoryStore) Get(sessionID string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[sessionID]
	return profile, ok
}

// Put publishes a profile, replacing any prior one atomically.
func (s *MemoryStore) Put(sessionID string, profile Profile) {
	s.mu.Lock()
	s.profiles[sessionID] = profile
	s.mu.Unlock()
}

// Delete removes the profile for a session.
func (s *MemoryStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.profiles, sessionID)
	s.mu.Unlock()
}
