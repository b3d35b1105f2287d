package replica

import (
	"sync"

	replicamodel "github.com/echotwin/echotwin/internal/model/replica"
)

// Tracker exposes chunk-progress counters for polling clients. Writes come
// from the summarizer, reads from the progress endpoint; both counters of a
// snapshot always belong to the same update.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]replicamodel.Progress
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]replicamodel.Progress)}
}

// Begin registers a job with its precomputed chunk total.
func (t *Tracker) Begin(sessionID string, total int) {
	t.mu.Lock()
	t.jobs[sessionID] = replicamodel.Progress{Current: 0, Total: total}
	t.mu.Unlock()
}

// Advance bumps the completed count by one, clamped to the total.
func (t *Tracker) Advance(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.jobs[sessionID]
	if !ok {
		return
	}
	if p.Current < p.Total {
		p.Current++
	}
	t.jobs[sessionID] = p
}

// Snapshot returns the current counters. Unknown sessions report {0, 1} so a
// poller racing job completion reads a harmless zero value instead of an
// error.
func (t *Tracker) Snapshot(sessionID string) replicamodel.Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if p, ok := t.jobs[sessionID]; ok {
		return p
	}
	return replicamodel.Progress{Current: 0, Total: 1}
}

// Clear drops the counters for a session.
func (t *Tracker) Clear(sessionID string) {
	t.mu.Lock()
	delete(t.jobs, sessionID)
	t.mu.Unlock()
}
