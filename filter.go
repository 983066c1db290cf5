package nametags

import (
	"maps"

	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
)

// Filter rewrites the packets sent to a viewer so that owners with a name tag
// entity show the passenger's tag instead of their own.
//
// Packets about players without a registered entity pass through unchanged,
// which covers players that are still logging in.
type Filter struct {
	p *Plugin
}

// write filters pk and writes the result to c. It runs inside c's write lock.
func (f *Filter) write(c *Conn, pk packet.Packet) error {
	w := connWriter{c: c}

	switch pk := pk.(type) {
	case *packet.AddPlayer:
		c.learn(pk.UUID, pk.EntityRuntimeID)
		e, ok := f.p.manager.Get(pk.UUID)
		if !ok || !e.Active() {
			break
		}
		cp := *pk
		cp.EntityMetadata = stripNameTag(pk.EntityMetadata)
		err := w.WritePacket(&cp)
		// The owner now exists on the client: seat the passenger if this
		// viewer should see it.
		e.sendPassenger(c.id, w)
		return err

	case *packet.SetActorData:
		owner, ok := c.owner(pk.EntityRuntimeID)
		if !ok {
			break
		}
		if e, ok := f.p.manager.Get(owner); ok && e.Active() {
			cp := *pk
			cp.EntityMetadata = stripNameTag(pk.EntityMetadata)
			return w.WritePacket(&cp)
		}

	case *packet.RemoveActor:
		id := uint64(pk.EntityUniqueID)
		if _, ok := c.owner(id); !ok {
			break
		}
		c.forget(id)
		err := w.WritePacket(pk)
		for _, pid := range f.p.manager.LastSentPassengers(c.id, id) {
			_ = w.WritePacket(&packet.RemoveActor{EntityUniqueID: int64(pid)})
		}
		f.p.manager.RemoveLastSentPassengersCache(c.id, id)
		return err
	}
	return w.WritePacket(pk)
}

// stripNameTag returns a copy of meta with the vanilla name tag removed.
// The original map may be shared between viewers and is never modified.
func stripNameTag(meta map[uint32]any) map[uint32]any {
	if meta == nil {
		return nil
	}
	cp := maps.Clone(meta)
	if _, ok := cp[protocol.EntityDataKeyName]; ok {
		cp[protocol.EntityDataKeyName] = ""
	}
	if flags, ok := cp[protocol.EntityDataKeyFlags].(int64); ok {
		flags &^= int64(1) << protocol.EntityDataFlagShowName
		flags &^= int64(1) << protocol.EntityDataFlagAlwaysShowName
		cp[protocol.EntityDataKeyFlags] = flags
	}
	return cp
}
