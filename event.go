package nametags

import (
	"time"

	"github.com/google/uuid"
)

// Delays of the reconciliation jobs scheduled when a player joins.
const (
	joinSyncDelay      = 500 * time.Millisecond
	hiddenRecheckDelay = time.Second
)

// EventKind identifies a lifecycle event handled by the plugin.
type EventKind int

const (
	// EventJoin is dispatched when an online player's tag should be created.
	EventJoin EventKind = iota
	// EventQuit is dispatched when a player leaves.
	EventQuit
	// EventChangeWorld is dispatched after a player moved to another world.
	EventChangeWorld
	// EventDeath is dispatched when a player dies.
	EventDeath
	// EventRespawn is dispatched when a player respawns.
	EventRespawn
	// EventRelocate moves a tag to its owner's position and re-sends it to
	// the owner. It is dispatched from the background domain after a respawn.
	EventRelocate
	// EventTeleport is dispatched when a player is teleported.
	EventTeleport
	// EventSneak is dispatched when a player starts or stops sneaking.
	EventSneak
	// EventToggle is dispatched when a player's hidden flag flips.
	EventToggle
	// EventReconcile runs a deferred reconciliation job.
	EventReconcile
	// EventRefresh re-renders a tag's text.
	EventRefresh
	// EventReload recreates every tag after a configuration reload.
	EventReload
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventJoin:
		return "Join"
	case EventQuit:
		return "Quit"
	case EventChangeWorld:
		return "ChangeWorld"
	case EventDeath:
		return "Death"
	case EventRespawn:
		return "Respawn"
	case EventRelocate:
		return "Relocate"
	case EventTeleport:
		return "Teleport"
	case EventSneak:
		return "Sneak"
	case EventToggle:
		return "Toggle"
	case EventReconcile:
		return "Reconcile"
	case EventRefresh:
		return "Refresh"
	case EventReload:
		return "Reload"
	default:
		return "Unknown"
	}
}

// Event is a lifecycle event. Only the fields relevant to Kind are set.
type Event struct {
	Kind  EventKind
	Owner uuid.UUID

	// Sneaking is the new sneak state of an EventSneak.
	Sneaking bool
	// Hidden is the new hidden flag of an EventToggle.
	Hidden bool
	// SameWorld reports whether an EventRespawn stays in the owner's world.
	SameWorld bool
	// Reason is the job reason of an EventReconcile.
	Reason Reason
}

// Dispatch handles ev. Events are handled one at a time in dispatch order;
// Dispatch must not be called from inside another event. A panic while
// handling ev is logged and does not reach the caller.
func (p *Plugin) Dispatch(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("nametags: event failed", "kind", ev.Kind, "owner", ev.Owner, "panic", r)
		}
	}()
	p.handle(ev)
}

// handle is the single state transition function of the plugin.
func (p *Plugin) handle(ev Event) {
	p.log.Debug("nametags: event", "kind", ev.Kind, "owner", ev.Owner)

	switch ev.Kind {
	case EventJoin:
		p.handleJoin(ev.Owner)
		return
	case EventQuit:
		p.handleQuit(ev.Owner)
		return
	case EventToggle:
		p.handleToggle(ev.Owner, ev.Hidden)
		return
	case EventReconcile:
		p.handleReconcile(ev.Owner, ev.Reason)
		return
	case EventReload:
		p.handleReload()
		return
	}

	e, ok := p.manager.Get(ev.Owner)
	if !ok || !e.Active() {
		return
	}
	switch ev.Kind {
	case EventChangeWorld:
		e.UpdateLocation()
		p.resyncSelf(e, true)
	case EventDeath:
		e.dead.Store(true)
		p.resyncSelf(e, false)
	case EventRespawn:
		e.dead.Store(false)
		if ev.SameWorld {
			id := ev.Owner
			p.scheduler.Async(func() {
				p.Dispatch(Event{Kind: EventRelocate, Owner: id})
			})
		}
	case EventRelocate:
		e.UpdateLocation()
		p.resyncSelf(e, false)
	case EventTeleport:
		e.UpdateLocation()
	case EventSneak:
		if !p.Config().Bool("sneak.enabled", false) {
			return
		}
		if sneak, ok := TraitOf(e.Traits(), TraitSneak, func() *SneakTrait {
			return NewSneakTrait(e)
		}); ok {
			sneak.UpdateSneak(ev.Sneaking)
		}
	case EventRefresh:
		if tr, ok := e.Traits().Get(TraitText); ok {
			tr.(*TextTrait).Refresh()
		}
	}
}

func (p *Plugin) handleJoin(id uuid.UUID) {
	o, ok := p.players.get(id)
	if !ok {
		return
	}
	var e *Entity
	p.isolate(o.owner, func() {
		e = p.manager.GetOrCreate(o.owner)
		e.hideVanillaTag()
		e.Sync()
	})
	p.each(func(other *Entity) {
		if other != e {
			other.SyncViewer(o.viewer)
		}
	})

	for _, job := range []struct {
		reason Reason
		delay  time.Duration
	}{
		{ReasonJoinSync, joinSyncDelay},
		{ReasonHiddenRecheck, hiddenRecheckDelay},
	} {
		reason := job.reason
		p.scheduler.Schedule(JobKey{Owner: id, Reason: reason}, job.delay, RunnableFunc(func() {
			p.Dispatch(Event{Kind: EventReconcile, Owner: id, Reason: reason})
		}))
	}
}

func (p *Plugin) handleReconcile(id uuid.UUID, reason Reason) {
	o, ok := p.players.get(id)
	if !ok {
		// The owner left before the job ran.
		return
	}
	switch reason {
	case ReasonJoinSync:
		if e, ok := p.manager.Get(id); ok {
			p.isolate(o.owner, e.Sync)
		}
		fallthrough
	case ReasonHiddenRecheck:
		p.each(func(other *Entity) {
			if other.owner.UUID() != id {
				other.SyncViewer(o.viewer)
			}
		})
	}
}

func (p *Plugin) handleQuit(id uuid.UUID) {
	p.manager.ForgetViewer(id)
	p.each(func(e *Entity) {
		if e.owner.UUID() != id {
			e.passenger.RemoveViewer(id)
		}
	})
	p.players.remove(id)

	if e, ok := p.manager.Remove(id); ok {
		p.isolate(e.owner, e.Destroy)
	}
}

func (p *Plugin) handleToggle(id uuid.UUID, hidden bool) {
	o, online := p.players.get(id)
	p.each(func(e *Entity) {
		if e.owner.UUID() == id {
			p.resyncSelf(e, false)
			return
		}
		if online {
			e.SyncViewer(o.viewer)
		} else {
			e.passenger.RemoveViewer(id)
		}
	})
	p.log.Debug("nametags: toggled", "owner", id, "hidden", hidden)
}

func (p *Plugin) handleReload() {
	for _, o := range p.players.all() {
		p.isolate(o.owner, func() {
			id := o.owner.UUID()
			var viewers []uuid.UUID
			if old, ok := p.manager.Remove(id); ok {
				viewers = old.passenger.viewers.All()
				old.Destroy()
			}
			e := p.manager.GetOrCreate(o.owner)
			for _, v := range viewers {
				e.passenger.AddViewer(v)
			}
			e.Sync()
		})
	}
}

// resyncSelf applies the self visibility rule to the owner's own tag. With
// respawn set, a tag the owner can see is despawned and spawned again, for
// clients that dropped it with their old world.
func (p *Plugin) resyncSelf(e *Entity, respawn bool) {
	o, ok := p.players.get(e.owner.UUID())
	if !ok {
		return
	}
	if respawn && e.passenger.RemoveViewer(o.owner.UUID()) {
		e.SendPassengerPacket(o.viewer)
	}
	e.SyncViewer(o.viewer)
}

// each calls fn for every registered entity. A panic in fn is logged and
// does not stop the remaining entities from being visited.
func (p *Plugin) each(fn func(e *Entity)) {
	for _, e := range p.manager.All() {
		p.isolate(e.owner, func() { fn(e) })
	}
}

// isolate runs one owner's share of an event, logging a panic instead of
// letting it abort the work left for other owners.
func (p *Plugin) isolate(owner Owner, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("nametags: entity update failed", "owner", owner.Name(), "panic", r)
		}
	}()
	fn()
}
