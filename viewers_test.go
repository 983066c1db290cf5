package nametags

import (
	"testing"

	"github.com/google/uuid"
)

func TestViewerSetIsIdempotent(t *testing.T) {
	vs := NewViewerSet()
	id := uuid.New()

	if !vs.Add(id) {
		t.Fatalf("expected first add to change the set")
	}
	if vs.Add(id) {
		t.Fatalf("expected second add to be a no-op")
	}
	if got := vs.Len(); got != 1 {
		t.Fatalf("expected 1 viewer, got %d", got)
	}
	if !vs.Remove(id) {
		t.Fatalf("expected remove of a member to change the set")
	}
	if vs.Remove(id) {
		t.Fatalf("expected remove of a non-member to be a no-op")
	}
	if vs.Has(id) {
		t.Fatalf("expected viewer to be gone")
	}
}

func TestViewerSetSnapshotIsDetached(t *testing.T) {
	vs := NewViewerSet()
	a, b := uuid.New(), uuid.New()
	vs.Add(a)

	snap := vs.All()
	vs.Add(b)
	vs.Remove(a)

	if len(snap) != 1 || snap[0] != a {
		t.Fatalf("expected snapshot to keep [%s], got %v", a, snap)
	}

	cleared := vs.Clear()
	if len(cleared) != 1 || cleared[0] != b {
		t.Fatalf("expected clear to return [%s], got %v", b, cleared)
	}
	if vs.Len() != 0 {
		t.Fatalf("expected empty set after clear, got %d", vs.Len())
	}
}
