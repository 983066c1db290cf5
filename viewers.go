package nametags

import (
	"sync"

	"github.com/google/uuid"
)

// ViewerSet is the set of player identities that should currently see a
// passenger entity. Membership is idempotent: adding a present viewer or
// removing an absent one changes nothing.
//
// ViewerSet holds no packet state. Whether a viewer has actually been sent the
// passenger is tracked by the Manager's dedup cache.
type ViewerSet struct {
	mu      sync.RWMutex
	viewers map[uuid.UUID]struct{}
}

// NewViewerSet creates an empty viewer set.
func NewViewerSet() *ViewerSet {
	return &ViewerSet{viewers: make(map[uuid.UUID]struct{})}
}

// Add adds a viewer to the set. It reports whether the set changed.
func (vs *ViewerSet) Add(id uuid.UUID) bool {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if _, ok := vs.viewers[id]; ok {
		return false
	}
	vs.viewers[id] = struct{}{}
	return true
}

// Remove removes a viewer from the set. It reports whether the set changed.
func (vs *ViewerSet) Remove(id uuid.UUID) bool {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if _, ok := vs.viewers[id]; !ok {
		return false
	}
	delete(vs.viewers, id)
	return true
}

// Has checks if a viewer is in the set.
func (vs *ViewerSet) Has(id uuid.UUID) bool {
	vs.mu.RLock()
	_, ok := vs.viewers[id]
	vs.mu.RUnlock()
	return ok
}

// Len returns the number of viewers in the set.
func (vs *ViewerSet) Len() int {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return len(vs.viewers)
}

// All returns a snapshot of the viewers. The returned slice is owned by the
// caller and is not affected by later mutations.
func (vs *ViewerSet) All() []uuid.UUID {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(vs.viewers))
	for id := range vs.viewers {
		out = append(out, id)
	}
	return out
}

// Clear empties the set and returns the viewers it held.
func (vs *ViewerSet) Clear() []uuid.UUID {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	out := make([]uuid.UUID, 0, len(vs.viewers))
	for id := range vs.viewers {
		out = append(out, id)
	}
	vs.viewers = make(map[uuid.UUID]struct{})
	return out
}
