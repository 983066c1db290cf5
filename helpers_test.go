package nametags

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
)

// fakeOwner is an Owner with settable position and world.
type fakeOwner struct {
	id   uuid.UUID
	name string

	mu    sync.Mutex
	pos   mgl64.Vec3
	world string
}

func newFakeOwner(name string) *fakeOwner {
	return &fakeOwner{id: uuid.New(), name: name, world: "overworld"}
}

func (o *fakeOwner) UUID() uuid.UUID { return o.id }
func (o *fakeOwner) Name() string    { return o.name }

func (o *fakeOwner) Position() mgl64.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pos
}

func (o *fakeOwner) World() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.world
}

func (o *fakeOwner) move(pos mgl64.Vec3, world string) {
	o.mu.Lock()
	o.pos, o.world = pos, world
	o.mu.Unlock()
}

// fakeViewer records every packet written to it. Runtime ids of other owners
// are assigned with spawn; the viewer itself is always known as 1.
type fakeViewer struct {
	id uuid.UUID

	mu      sync.Mutex
	ids     map[uuid.UUID]uint64
	packets []packet.Packet
}

func newFakeViewer(id uuid.UUID) *fakeViewer {
	return &fakeViewer{id: id, ids: make(map[uuid.UUID]uint64)}
}

func (v *fakeViewer) UUID() uuid.UUID { return v.id }

func (v *fakeViewer) Write(fn func(w Writer)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(fakeWriter{v: v})
}

// spawn makes the viewer's client know owner under runtime id.
func (v *fakeViewer) spawn(owner uuid.UUID, id uint64) {
	v.mu.Lock()
	v.ids[owner] = id
	v.mu.Unlock()
}

// despawn makes the viewer's client forget owner.
func (v *fakeViewer) despawn(owner uuid.UUID) {
	v.mu.Lock()
	delete(v.ids, owner)
	v.mu.Unlock()
}

// take returns the packets written since the last call.
func (v *fakeViewer) take() []packet.Packet {
	v.mu.Lock()
	defer v.mu.Unlock()
	pks := v.packets
	v.packets = nil
	return pks
}

type fakeWriter struct {
	v *fakeViewer
}

func (w fakeWriter) RuntimeID(owner uuid.UUID) (uint64, bool) {
	if owner == w.v.id {
		return selfRuntimeID, true
	}
	id, ok := w.v.ids[owner]
	return id, ok
}

func (w fakeWriter) WritePacket(pk packet.Packet) error {
	w.v.packets = append(w.v.packets, pk)
	return nil
}

// newTestPlugin creates a plugin in a temporary directory with the scheduler
// left stopped. conf replaces the default config when not empty.
func newTestPlugin(t *testing.T, conf string) *Plugin {
	t.Helper()

	dir := t.TempDir()
	if conf != "" {
		if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(conf), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
	}
	p, err := NewBuilder().
		Directory(dir).
		Logger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Manual().
		Init()
	if err != nil {
		t.Fatalf("failed to init plugin: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// join joins a fake player named name.
func join(p *Plugin, name string) (*fakeOwner, *fakeViewer) {
	o := newFakeOwner(name)
	v := newFakeViewer(o.id)
	p.Join(o, v)
	return o, v
}

// runJobs runs every job due within d.
func runJobs(p *Plugin, d time.Duration) {
	p.Scheduler().RunDue(time.Now().Add(d))
}

// spawns counts AddActor packets for passenger id.
func spawns(pks []packet.Packet, id uint64) int {
	n := 0
	for _, pk := range pks {
		if add, ok := pk.(*packet.AddActor); ok && add.EntityRuntimeID == id {
			n++
		}
	}
	return n
}

// despawns counts RemoveActor packets for entity id.
func despawns(pks []packet.Packet, id uint64) int {
	n := 0
	for _, pk := range pks {
		if rm, ok := pk.(*packet.RemoveActor); ok && uint64(rm.EntityUniqueID) == id {
			n++
		}
	}
	return n
}

// links returns the entity links sent for passenger id.
func links(pks []packet.Packet, id uint64) []*packet.SetActorLink {
	var out []*packet.SetActorLink
	for _, pk := range pks {
		if l, ok := pk.(*packet.SetActorLink); ok && uint64(l.EntityLink.RiderEntityUniqueID) == id {
			out = append(out, l)
		}
	}
	return out
}

// entityOf returns the registered entity of o or fails the test.
func entityOf(t *testing.T, p *Plugin, o Owner) *Entity {
	t.Helper()
	e, ok := p.Manager().Get(o.UUID())
	if !ok {
		t.Fatalf("expected entity for %s to be registered", o.Name())
	}
	return e
}
