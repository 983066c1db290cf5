package nametags

import (
	"sync"

	"github.com/df-mc/dragonfly/server/session"
	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
)

// selfRuntimeID is the runtime id Dragonfly gives a player in its own session.
const selfRuntimeID = 1

// Conn wraps a player's network connection so that everything written to it
// passes through the plugin's Filter. It is the Viewer of that player.
type Conn struct {
	session.Conn

	plugin *Plugin
	id     uuid.UUID

	// writeMu orders every packet written to the connection and guards the
	// runtime id tables below
	writeMu sync.Mutex

	// owners maps players spawned for this client to their runtime id
	owners map[uuid.UUID]uint64
	// runtimeIDs is the reverse of owners
	runtimeIDs map[uint64]uuid.UUID
}

// newConn wraps c.
func newConn(p *Plugin, c session.Conn) *Conn {
	id, err := uuid.Parse(c.IdentityData().Identity)
	if err != nil {
		p.log.Warn("nametags: connection without identity", "name", c.IdentityData().DisplayName, "error", err)
	}
	return &Conn{
		Conn:       c,
		plugin:     p,
		id:         id,
		owners:     make(map[uuid.UUID]uint64),
		runtimeIDs: make(map[uint64]uuid.UUID),
	}
}

// UUID returns the identity of the connected player.
func (c *Conn) UUID() uuid.UUID {
	return c.id
}

// WritePacket filters pk and writes the result to the underlying connection.
func (c *Conn) WritePacket(pk packet.Packet) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.plugin.filter.write(c, pk)
}

// Write runs fn with exclusive access to the underlying connection.
func (c *Conn) Write(fn func(w Writer)) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	fn(connWriter{c: c})
}

// Close unregisters the connection and closes it.
func (c *Conn) Close() error {
	c.plugin.conns.remove(c)
	return c.Conn.Close()
}

// learn records the runtime id of an owner spawned for this client.
// Caller must hold writeMu.
func (c *Conn) learn(owner uuid.UUID, id uint64) {
	if old, ok := c.owners[owner]; ok {
		delete(c.runtimeIDs, old)
	}
	c.owners[owner] = id
	c.runtimeIDs[id] = owner
}

// forget drops a runtime id that no longer names an owner. Caller must hold writeMu.
func (c *Conn) forget(id uint64) {
	if owner, ok := c.runtimeIDs[id]; ok {
		delete(c.owners, owner)
		delete(c.runtimeIDs, id)
	}
}

// owner resolves a runtime id to an owner. Caller must hold writeMu.
func (c *Conn) owner(id uint64) (uuid.UUID, bool) {
	owner, ok := c.runtimeIDs[id]
	return owner, ok
}

// connWriter is the Writer handed out under writeMu.
type connWriter struct {
	c *Conn
}

// RuntimeID implements Writer. A client always knows itself under
// selfRuntimeID.
func (w connWriter) RuntimeID(owner uuid.UUID) (uint64, bool) {
	if owner == w.c.id {
		return selfRuntimeID, true
	}
	id, ok := w.c.owners[owner]
	return id, ok
}

// WritePacket writes pk to the underlying connection, bypassing the filter.
func (w connWriter) WritePacket(pk packet.Packet) error {
	return w.c.Conn.WritePacket(pk)
}

// connRegistry tracks accepted connections until their player joins.
type connRegistry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Conn
}

func newConnRegistry() *connRegistry {
	return &connRegistry{conns: make(map[uuid.UUID]*Conn)}
}

func (r *connRegistry) add(c *Conn) {
	r.mu.Lock()
	r.conns[c.id] = c
	r.mu.Unlock()
}

func (r *connRegistry) remove(c *Conn) {
	r.mu.Lock()
	if r.conns[c.id] == c {
		delete(r.conns, c.id)
	}
	r.mu.Unlock()
}

func (r *connRegistry) get(id uuid.UUID) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}
