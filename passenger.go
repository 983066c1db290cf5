package nametags

import (
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
)

// DefaultEntityType is the actor type used for passengers unless configured
// otherwise. The actor is always sent invisible, so only its name tag shows.
const DefaultEntityType = "minecraft:armor_stand"

// passengerIDBase is the first synthetic entity id handed out. Dragonfly
// counts runtime ids per session from 1, so a high base keeps the two ranges
// apart for the lifetime of any realistic session.
const passengerIDBase = 1 << 40

// passengerIDs allocates synthetic entity ids for passengers process-wide.
var passengerIDs atomic.Uint64

// nextPassengerID returns a fresh synthetic entity id. Ids are never reused.
func nextPassengerID() uint64 {
	return passengerIDBase + passengerIDs.Add(1)
}

// Passenger is the synthetic entity that rides its owner and carries the
// visible name tag. It owns the viewer set and the presentation state, and
// builds the packets that describe it. It never writes those packets itself.
type Passenger struct {
	// id is the synthetic runtime and unique id of the passenger
	id uint64

	// entityType is the actor type announced in AddActor
	entityType string

	viewers *ViewerSet

	// mu protects the presentation state below
	mu       sync.RWMutex
	text     string
	position mgl64.Vec3
	world    string
	scale    float32
	sneaking bool
}

// newPassenger creates a passenger with a freshly allocated id.
func newPassenger(entityType string, scale float32) *Passenger {
	if entityType == "" {
		entityType = DefaultEntityType
	}
	if scale <= 0 {
		scale = 1
	}
	return &Passenger{
		id:         nextPassengerID(),
		entityType: entityType,
		viewers:    NewViewerSet(),
		scale:      scale,
	}
}

// ID returns the synthetic entity id of the passenger.
func (p *Passenger) ID() uint64 {
	return p.id
}

// Viewers returns the passenger's viewer set.
func (p *Passenger) Viewers() *ViewerSet {
	return p.viewers
}

// AddViewer adds a viewer. It reports whether membership changed.
func (p *Passenger) AddViewer(id uuid.UUID) bool {
	return p.viewers.Add(id)
}

// RemoveViewer removes a viewer. It reports whether membership changed.
func (p *Passenger) RemoveViewer(id uuid.UUID) bool {
	return p.viewers.Remove(id)
}

// HasViewer checks if id is a member of the viewer set.
func (p *Passenger) HasViewer(id uuid.UUID) bool {
	return p.viewers.Has(id)
}

// Text returns the rendered name tag text.
func (p *Passenger) Text() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.text
}

// SetText replaces the rendered text. It reports whether the text changed.
func (p *Passenger) SetText(text string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.text == text {
		return false
	}
	p.text = text
	return true
}

// Sneaking reports whether the passenger is shown in its sneaking form.
func (p *Passenger) Sneaking() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sneaking
}

// SetSneaking switches the sneaking form. It reports whether it changed.
func (p *Passenger) SetSneaking(sneaking bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sneaking == sneaking {
		return false
	}
	p.sneaking = sneaking
	return true
}

// Location returns the last position and world recorded for the passenger.
func (p *Passenger) Location() (mgl64.Vec3, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.position, p.world
}

// setLocation records a new location. It reports whether the world changed.
func (p *Passenger) setLocation(pos mgl64.Vec3, world string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	changed := p.world != world
	p.position, p.world = pos, world
	return changed
}

// metadata builds the actor metadata for the current presentation state.
func (p *Passenger) metadata() map[uint32]any {
	p.mu.RLock()
	defer p.mu.RUnlock()

	flags := int64(1)<<protocol.EntityDataFlagInvisible |
		int64(1)<<protocol.EntityDataFlagNoAI |
		int64(1)<<protocol.EntityDataFlagShowName
	if !p.sneaking {
		flags |= int64(1) << protocol.EntityDataFlagAlwaysShowName
	}
	return map[uint32]any{
		protocol.EntityDataKeyFlags:  flags,
		protocol.EntityDataKeyName:   p.text,
		protocol.EntityDataKeyScale:  p.scale,
		protocol.EntityDataKeyWidth:  float32(0),
		protocol.EntityDataKeyHeight: float32(0),
	}
}

// link returns the entity link that seats the passenger on vehicle.
func (p *Passenger) link(vehicle uint64, linkType byte) protocol.EntityLink {
	return protocol.EntityLink{
		RiddenEntityUniqueID: int64(vehicle),
		RiderEntityUniqueID:  int64(p.id),
		Type:                 linkType,
		Immediate:            true,
	}
}

// spawnPackets returns the packets that show the passenger to a viewer that
// knows its owner under the runtime id vehicle.
func (p *Passenger) spawnPackets(vehicle uint64) []packet.Packet {
	pos, _ := p.Location()
	return []packet.Packet{
		&packet.AddActor{
			EntityUniqueID:  int64(p.id),
			EntityRuntimeID: p.id,
			EntityType:      p.entityType,
			Position:        mgl32.Vec3{float32(pos[0]), float32(pos[1]), float32(pos[2])},
			EntityMetadata:  p.metadata(),
		},
		&packet.SetActorLink{EntityLink: p.link(vehicle, protocol.EntityLinkPassenger)},
	}
}

// despawnPacket returns the packet that removes the passenger from a viewer.
func (p *Passenger) despawnPacket() packet.Packet {
	return &packet.RemoveActor{EntityUniqueID: int64(p.id)}
}

// metadataPacket returns the packet that refreshes the passenger's name tag
// for a viewer that already has it spawned.
func (p *Passenger) metadataPacket() packet.Packet {
	return &packet.SetActorData{
		EntityRuntimeID: p.id,
		EntityMetadata:  p.metadata(),
	}
}
