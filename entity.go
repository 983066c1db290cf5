package nametags

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
)

// EntityState is the lifecycle state of a name tag entity.
type EntityState int32

const (
	// StateUninitialized is the state of an entity that is still being built.
	StateUninitialized EntityState = iota
	// StateActive is the state of a registered entity.
	StateActive
	// StateDestroyed is terminal. A destroyed entity sends no further packets.
	StateDestroyed
)

// String returns the string representation of the state.
func (s EntityState) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateActive:
		return "Active"
	case StateDestroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

// Entity is the name tag of one owner: the passenger that carries the text,
// the traits that shape it, and the rules deciding who sees it.
//
// Membership of the viewer set is the desired state. The Manager's dedup cache
// records what each viewer has actually been sent, and SendPassengerPacket
// moves a viewer from one to the other.
type Entity struct {
	plugin    *Plugin
	owner     Owner
	passenger *Passenger
	traits    Traits

	// group is the config group the owner resolved to at creation, or ""
	group string

	state atomic.Int32

	// dead is set between the owner's death and respawn
	dead atomic.Bool

	// sendMu makes the check of the dedup cache and the write that follows
	// it one step. It is always taken inside a Viewer's Write.
	sendMu sync.Mutex
}

// newEntity creates an uninitialised entity for owner.
func newEntity(p *Plugin, owner Owner) *Entity {
	conf := p.Config()
	return &Entity{
		plugin:    p,
		owner:     owner,
		passenger: newPassenger(conf.EntityType, conf.Scale),
	}
}

// init renders the initial text, records the location and activates the entity.
func (e *Entity) init() {
	conf := e.plugin.Config()
	group, template := conf.template(e.plugin.perms, e.owner)
	e.group = group

	e.UpdateLocation()
	text, _ := TraitOf(&e.traits, TraitText, func() *TextTrait {
		return NewTextTrait(e, template)
	})
	text.Refresh()
	text.refreshEvery(conf.refreshInterval())

	e.state.Store(int32(StateActive))
}

// Owner returns the player carrying this tag.
func (e *Entity) Owner() Owner {
	return e.owner
}

// Passenger returns the synthetic entity carrying the text.
func (e *Entity) Passenger() *Passenger {
	return e.passenger
}

// Traits returns the entity's trait registry.
func (e *Entity) Traits() *Traits {
	return &e.traits
}

// Group returns the config group the owner's tag is rendered from.
func (e *Entity) Group() string {
	return e.group
}

// State returns the lifecycle state.
func (e *Entity) State() EntityState {
	return EntityState(e.state.Load())
}

// Active reports whether the entity is registered and not destroyed.
func (e *Entity) Active() bool {
	return e.State() == StateActive
}

// UpdateVisibility recomputes the viewer set against every online player and
// returns the viewers whose membership changed. It sends nothing; pair it
// with SendPassengerPacket, or use Sync.
func (e *Entity) UpdateVisibility() []uuid.UUID {
	if !e.Active() {
		return nil
	}

	var changed []uuid.UUID
	players := e.plugin.players.all()
	present := make(map[uuid.UUID]struct{}, len(players))
	for _, o := range players {
		id := o.owner.UUID()
		present[id] = struct{}{}
		if e.updateViewer(id) {
			changed = append(changed, id)
		}
	}

	// Viewers that went offline without a quit reaching us.
	for _, id := range e.passenger.viewers.All() {
		if _, ok := present[id]; !ok && e.passenger.RemoveViewer(id) {
			changed = append(changed, id)
		}
	}
	return changed
}

// updateViewer applies the visibility rules to a single viewer and reports
// whether membership changed.
func (e *Entity) updateViewer(id uuid.UUID) bool {
	if e.plugin.canSee(e, id) {
		return e.passenger.AddViewer(id)
	}
	return e.passenger.RemoveViewer(id)
}

// UpdateLocation copies the owner's current position and world onto the
// passenger. It reports whether the world changed.
func (e *Entity) UpdateLocation() bool {
	return e.passenger.setLocation(e.owner.Position(), e.owner.World())
}

// Sync recomputes the viewer set and brings every online viewer's client in
// line with it. Viewers that are already up to date are sent nothing.
func (e *Entity) Sync() {
	if !e.Active() {
		return
	}
	e.UpdateVisibility()
	for _, o := range e.plugin.players.all() {
		e.SendPassengerPacket(o.viewer)
	}
}

// SyncViewer is Sync restricted to a single viewer.
func (e *Entity) SyncViewer(v Viewer) {
	if !e.Active() {
		return
	}
	e.updateViewer(v.UUID())
	e.SendPassengerPacket(v)
}

// SendPassengerPacket makes v's client agree with v's membership: a member
// that has not been sent the passenger gets it spawned and linked, a former
// member that still has it gets it removed. Nothing is sent when the client
// is already up to date, or when v does not have the owner spawned.
func (e *Entity) SendPassengerPacket(v Viewer) {
	if !e.Active() {
		return
	}
	id := v.UUID()
	v.Write(func(w Writer) {
		e.sendPassenger(id, w)
	})
}

// sendPassenger does the work of SendPassengerPacket inside the viewer's Write.
func (e *Entity) sendPassenger(viewer uuid.UUID, w Writer) {
	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	vehicle, ok := w.RuntimeID(e.owner.UUID())
	if !ok {
		return
	}
	m := e.plugin.manager
	pid := e.passenger.ID()
	member := e.Active() && e.passenger.HasViewer(viewer)
	sent := m.hasSent(viewer, vehicle, pid)

	switch {
	case member && !sent:
		for _, pk := range e.passenger.spawnPackets(vehicle) {
			e.write(w, viewer, pk)
		}
		m.markSent(viewer, vehicle, pid)
	case !member && sent:
		e.write(w, viewer, e.passenger.despawnPacket())
		m.unmarkSent(viewer, vehicle, pid)
	}
}

// hideVanillaTag blanks the owner's own name tag for every online viewer that
// already has the owner spawned. Those viewers were sent the owner before
// the entity existed, so the filter let the vanilla tag through.
func (e *Entity) hideVanillaTag() {
	owner := e.owner.UUID()
	for _, o := range e.plugin.players.all() {
		if o.owner.UUID() == owner {
			continue
		}
		viewer := o.owner.UUID()
		o.viewer.Write(func(w Writer) {
			id, ok := w.RuntimeID(owner)
			if !ok {
				return
			}
			// The client keeps the keys a partial update leaves out, and an
			// empty name renders no tag whatever the flags say.
			e.write(w, viewer, &packet.SetActorData{
				EntityRuntimeID: id,
				EntityMetadata:  map[uint32]any{protocol.EntityDataKeyName: ""},
			})
		})
	}
}

// pushMetadata sends the current passenger metadata to every viewer that has
// the passenger spawned.
func (e *Entity) pushMetadata() {
	if !e.Active() {
		return
	}
	for _, id := range e.passenger.viewers.All() {
		o, ok := e.plugin.players.get(id)
		if !ok {
			continue
		}
		o.viewer.Write(func(w Writer) {
			e.sendMu.Lock()
			defer e.sendMu.Unlock()

			vehicle, ok := w.RuntimeID(e.owner.UUID())
			if !ok || !e.plugin.manager.hasSent(id, vehicle, e.passenger.ID()) {
				return
			}
			e.write(w, id, e.passenger.metadataPacket())
		})
	}
}

// Destroy despawns the passenger for every viewer in the viewer set, evicts
// their dedup entries for the owner, empties the set and releases all traits.
// Only the first call has any effect.
func (e *Entity) Destroy() {
	if EntityState(e.state.Swap(int32(StateDestroyed))) == StateDestroyed {
		return
	}
	e.traits.Release()

	owner := e.owner.UUID()
	for _, id := range e.passenger.viewers.Clear() {
		o, ok := e.plugin.players.get(id)
		if !ok {
			continue
		}
		o.viewer.Write(func(w Writer) {
			e.sendMu.Lock()
			defer e.sendMu.Unlock()

			if vehicle, ok := w.RuntimeID(owner); ok {
				e.plugin.manager.RemoveLastSentPassengersCache(id, vehicle)
			}
			e.write(w, id, e.passenger.despawnPacket())
		})
	}
}

func (e *Entity) write(w Writer, viewer uuid.UUID, pk packet.Packet) {
	if err := w.WritePacket(pk); err != nil {
		e.plugin.log.Debug("nametags: write passenger packet", "owner", e.owner.Name(), "viewer", viewer, "error", err)
	}
}
