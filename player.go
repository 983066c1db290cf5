package nametags

import (
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
)

// Owner is a player that carries a name tag. Implementations must be safe to
// call from any goroutine and must not block on the world.
type Owner interface {
	UUID() uuid.UUID
	Name() string
	Position() mgl64.Vec3
	World() string
}

// Writer is exclusive access to one viewer's outgoing packet stream.
type Writer interface {
	// RuntimeID returns the runtime id the viewer's client knows owner by.
	// It returns false if the owner is not currently spawned for the viewer.
	RuntimeID(owner uuid.UUID) (uint64, bool)
	// WritePacket writes pk to the viewer without further filtering.
	WritePacket(pk packet.Packet) error
}

// Viewer is a connected client that name tags can be shown to.
type Viewer interface {
	UUID() uuid.UUID
	// Write runs fn with exclusive access to the viewer's outgoing stream.
	// Packets written through the Writer are ordered against every other
	// packet sent to the viewer.
	Write(fn func(w Writer))
}

// online is a player that has joined and not yet quit.
type online struct {
	owner  Owner
	viewer Viewer
}

// registry tracks online players by UUID.
type registry struct {
	mu      sync.RWMutex
	players map[uuid.UUID]online
}

func newRegistry() *registry {
	return &registry{players: make(map[uuid.UUID]online)}
}

func (r *registry) add(o Owner, v Viewer) {
	r.mu.Lock()
	r.players[o.UUID()] = online{owner: o, viewer: v}
	r.mu.Unlock()
}

func (r *registry) remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[id]; !ok {
		return false
	}
	delete(r.players, id)
	return true
}

func (r *registry) get(id uuid.UUID) (online, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.players[id]
	return o, ok
}

// byName looks a player up by name, ignoring case.
func (r *registry) byName(name string) (online, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.players {
		if strings.EqualFold(o.owner.Name(), name) {
			return o, true
		}
	}
	return online{}, false
}

// all returns a snapshot of every online player.
func (r *registry) all() []online {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]online, 0, len(r.players))
	for _, o := range r.players {
		out = append(out, o)
	}
	return out
}
