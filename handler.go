package nametags

import (
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// Handler is the player.Handler that feeds a player's lifecycle into the
// plugin.
//
// Concurrency:
// Dragonfly calls handlers inside the player's world transaction. Handler
// methods only update the owner's cached state and dispatch events, and the
// plugin never enters a world transaction while handling them.
type Handler struct {
	player.NopHandler

	plugin *Plugin
	owner  *playerOwner
}

// Compile-time check that Handler implements player.Handler.
var _ player.Handler = (*Handler)(nil)

// Accept joins p to the plugin and installs its Handler. Call it for every
// player returned by the server's Accept.
//
//	for p := range srv.Accept() {
//	    plugin.Accept(p)
//	}
func (p *Plugin) Accept(pl *player.Player) *Handler {
	owner := newPlayerOwner(pl)
	h := &Handler{plugin: p, owner: owner}
	pl.Handle(h)

	var viewer Viewer
	if c, ok := p.conns.get(owner.UUID()); ok {
		viewer = c
	} else {
		p.log.Warn("nametags: player joined through an unwrapped listener", "player", owner.Name())
		viewer = detachedViewer{id: owner.UUID()}
	}
	p.Join(owner, viewer)
	return h
}

// HandleMove caches the player's new position.
func (h *Handler) HandleMove(ctx *player.Context, newPos mgl64.Vec3, newRot cube.Rotation) {
	h.owner.updatePosition(newPos)
}

// HandleTeleport moves the tag with the player.
func (h *Handler) HandleTeleport(ctx *player.Context, pos mgl64.Vec3) {
	h.owner.updatePosition(pos)
	h.plugin.Dispatch(Event{Kind: EventTeleport, Owner: h.owner.UUID()})
}

// HandleChangeWorld moves the tag to the new world.
func (h *Handler) HandleChangeWorld(p *player.Player, before, after *world.World) {
	h.owner.updateWorld(after)
	h.owner.updatePosition(p.Position())
	h.plugin.Dispatch(Event{Kind: EventChangeWorld, Owner: h.owner.UUID()})
}

// HandleToggleSneak switches the tag into or out of its sneaking form.
func (h *Handler) HandleToggleSneak(ctx *player.Context, after bool) {
	h.plugin.Dispatch(Event{Kind: EventSneak, Owner: h.owner.UUID(), Sneaking: after})
}

// HandleDeath hides the player's own tag from them until they respawn.
func (h *Handler) HandleDeath(p *player.Player, src world.DamageSource, keepInv *bool) {
	h.plugin.Dispatch(Event{Kind: EventDeath, Owner: h.owner.UUID()})
}

// HandleRespawn re-seats the tag on the player once they are back in the
// same world. Respawns into another world are covered by HandleChangeWorld.
func (h *Handler) HandleRespawn(p *player.Player, pos *mgl64.Vec3, w **world.World) {
	h.owner.updatePosition(*pos)
	same := *w == p.Tx().World()
	h.plugin.Dispatch(Event{Kind: EventRespawn, Owner: h.owner.UUID(), SameWorld: same})
}

// HandleQuit removes the player and their tag.
func (h *Handler) HandleQuit(p *player.Player) {
	h.plugin.Quit(h.owner.UUID())
}
