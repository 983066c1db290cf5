package nametags

import (
	"sync"

	"github.com/google/uuid"
)

// Manager is the registry of name tag entities, one per online owner, and of
// the passenger ids last sent riding each owner to each viewer.
//
// Runtime ids are assigned per client, so the dedup cache is keyed by viewer
// first and by the id that viewer knows the owner under second.
type Manager struct {
	plugin *Plugin

	// entities holds the registered entity of every owner
	entities   map[uuid.UUID]*Entity
	entitiesMu sync.RWMutex

	// lastSent maps viewer -> owner runtime id -> passenger ids sent riding it
	lastSent   map[uuid.UUID]map[uint64]map[uint64]struct{}
	lastSentMu sync.Mutex
}

// newManager creates a new manager.
func newManager(p *Plugin) *Manager {
	return &Manager{
		plugin:   p,
		entities: make(map[uuid.UUID]*Entity),
		lastSent: make(map[uuid.UUID]map[uint64]map[uint64]struct{}),
	}
}

// GetOrCreate returns the entity registered for owner, creating, initialising
// and registering one if there is none. Concurrent calls for the same owner
// return the same entity.
func (m *Manager) GetOrCreate(owner Owner) *Entity {
	id := owner.UUID()

	m.entitiesMu.RLock()
	e, ok := m.entities[id]
	m.entitiesMu.RUnlock()
	if ok {
		return e
	}

	m.entitiesMu.Lock()
	defer m.entitiesMu.Unlock()

	if e, ok := m.entities[id]; ok {
		return e
	}
	e = newEntity(m.plugin, owner)
	e.init()
	m.entities[id] = e
	return e
}

// Get returns the entity registered for the owner id.
func (m *Manager) Get(id uuid.UUID) (*Entity, bool) {
	m.entitiesMu.RLock()
	defer m.entitiesMu.RUnlock()
	e, ok := m.entities[id]
	return e, ok
}

// All returns a snapshot of every registered entity.
func (m *Manager) All() []*Entity {
	m.entitiesMu.RLock()
	defer m.entitiesMu.RUnlock()
	out := make([]*Entity, 0, len(m.entities))
	for _, e := range m.entities {
		out = append(out, e)
	}
	return out
}

// Len returns the number of registered entities.
func (m *Manager) Len() int {
	m.entitiesMu.RLock()
	defer m.entitiesMu.RUnlock()
	return len(m.entities)
}

// Remove unregisters the entity of the owner id and returns it. The entity is
// not destroyed; callers destroy it once removed.
func (m *Manager) Remove(id uuid.UUID) (*Entity, bool) {
	m.entitiesMu.Lock()
	defer m.entitiesMu.Unlock()
	e, ok := m.entities[id]
	if ok {
		delete(m.entities, id)
	}
	return e, ok
}

// RemoveLastSentPassengersCache forgets what viewer was sent riding the
// entity it knows by runtime id. It is called whenever that id stops naming
// the owner it named, so a later owner reusing the id starts from nothing.
func (m *Manager) RemoveLastSentPassengersCache(viewer uuid.UUID, runtimeID uint64) {
	m.lastSentMu.Lock()
	defer m.lastSentMu.Unlock()
	byID, ok := m.lastSent[viewer]
	if !ok {
		return
	}
	delete(byID, runtimeID)
	if len(byID) == 0 {
		delete(m.lastSent, viewer)
	}
}

// ForgetViewer drops every dedup entry of viewer. Runtime ids do not outlive
// the viewer's connection.
func (m *Manager) ForgetViewer(viewer uuid.UUID) {
	m.lastSentMu.Lock()
	delete(m.lastSent, viewer)
	m.lastSentMu.Unlock()
}

// LastSentPassengers returns the passenger ids last sent to viewer riding the
// entity it knows by runtime id.
func (m *Manager) LastSentPassengers(viewer uuid.UUID, runtimeID uint64) []uint64 {
	m.lastSentMu.Lock()
	defer m.lastSentMu.Unlock()
	set := m.lastSent[viewer][runtimeID]
	out := make([]uint64, 0, len(set))
	for pid := range set {
		out = append(out, pid)
	}
	return out
}

func (m *Manager) hasSent(viewer uuid.UUID, runtimeID, passenger uint64) bool {
	m.lastSentMu.Lock()
	defer m.lastSentMu.Unlock()
	_, ok := m.lastSent[viewer][runtimeID][passenger]
	return ok
}

func (m *Manager) markSent(viewer uuid.UUID, runtimeID, passenger uint64) {
	m.lastSentMu.Lock()
	defer m.lastSentMu.Unlock()
	byID, ok := m.lastSent[viewer]
	if !ok {
		byID = make(map[uint64]map[uint64]struct{})
		m.lastSent[viewer] = byID
	}
	set, ok := byID[runtimeID]
	if !ok {
		set = make(map[uint64]struct{})
		byID[runtimeID] = set
	}
	set[passenger] = struct{}{}
}

func (m *Manager) unmarkSent(viewer uuid.UUID, runtimeID, passenger uint64) {
	m.lastSentMu.Lock()
	defer m.lastSentMu.Unlock()
	set, ok := m.lastSent[viewer][runtimeID]
	if !ok {
		return
	}
	delete(set, passenger)
	if len(set) == 0 {
		delete(m.lastSent[viewer], runtimeID)
	}
}
