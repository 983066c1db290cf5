package nametags

import (
	"sync/atomic"

	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
)

// playerOwner is the Owner of a Dragonfly player. Position and world are
// cached from the player's handler, so reading them never enters a world
// transaction.
type playerOwner struct {
	// uuid and name are cached for fast lookup
	uuid uuid.UUID
	name string

	// pos is the last position seen by the handler
	pos atomic.Pointer[mgl64.Vec3]

	// worldCache is the atomic pointer to the player's world
	worldCache atomic.Pointer[world.World]
}

// newPlayerOwner snapshots p. It must be called inside p's transaction.
func newPlayerOwner(p *player.Player) *playerOwner {
	o := &playerOwner{
		uuid: p.UUID(),
		name: p.Name(),
	}
	o.updatePosition(p.Position())
	o.updateWorld(p.Tx().World())
	return o
}

// UUID returns the player's UUID.
func (o *playerOwner) UUID() uuid.UUID {
	return o.uuid
}

// Name returns the player's name.
func (o *playerOwner) Name() string {
	return o.name
}

// Position returns the cached position (may be slightly stale).
func (o *playerOwner) Position() mgl64.Vec3 {
	if pos := o.pos.Load(); pos != nil {
		return *pos
	}
	return mgl64.Vec3{}
}

// World returns the name of the cached world.
func (o *playerOwner) World() string {
	if w := o.worldCache.Load(); w != nil {
		return w.Name()
	}
	return ""
}

func (o *playerOwner) updatePosition(pos mgl64.Vec3) {
	o.pos.Store(&pos)
}

func (o *playerOwner) updateWorld(w *world.World) {
	o.worldCache.Store(w)
}

// detachedViewer stands in for a player whose connection was not accepted
// through a wrapped listener. Its client never reports any runtime ids, so
// nothing is ever written to it.
type detachedViewer struct {
	id uuid.UUID
}

func (v detachedViewer) UUID() uuid.UUID { return v.id }

func (v detachedViewer) Write(fn func(w Writer)) { fn(v) }

func (detachedViewer) RuntimeID(uuid.UUID) (uint64, bool) { return 0, false }

func (detachedViewer) WritePacket(packet.Packet) error { return nil }
