package nametags

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T, path string) *ToggleStore {
	t.Helper()
	return NewToggleStore(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestToggleStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.toml")
	s := newTestStore(t, path)
	if err := s.Load(); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected an empty data file to be created: %v", err)
	}

	hidden, shown := uuid.New(), uuid.New()
	s.SetHidden(hidden, true)
	s.SetHidden(shown, true)
	s.SetHidden(shown, false)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read data file: %v", err)
	}
	if !strings.Contains(string(data), hidden.String()) || !strings.Contains(string(data), "toggle-off") {
		t.Fatalf("expected hidden player to be persisted, got %q", data)
	}
	if strings.Contains(string(data), shown.String()) {
		t.Fatalf("expected shown player to be absent, got %q", data)
	}

	reloaded := newTestStore(t, path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if !reloaded.IsHidden(hidden) {
		t.Fatalf("expected hidden flag to survive a reload")
	}
	if reloaded.IsHidden(shown) {
		t.Fatalf("expected shown player to stay visible")
	}
}

func TestToggleStoreSkipsInvalidEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.toml")
	id := uuid.New()
	contents := "[not-a-uuid]\ntoggle-off = true\n\n[\"" + id.String() + "\"]\ntoggle-off = true\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write data file: %v", err)
	}

	s := newTestStore(t, path)
	if err := s.Load(); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if !s.IsHidden(id) {
		t.Fatalf("expected valid entry to load")
	}
}

func TestToggleStoreNotifiesOnlyOnFlip(t *testing.T) {
	s := newTestStore(t, filepath.Join(t.TempDir(), "data.toml"))
	var got []bool
	s.OnChange(func(_ uuid.UUID, hidden bool) { got = append(got, hidden) })

	id := uuid.New()
	s.SetHidden(id, false)
	s.SetHidden(id, true)
	s.SetHidden(id, true)
	s.SetHidden(id, false)

	if len(got) != 2 || !got[0] || got[1] {
		t.Fatalf("expected [true false], got %v", got)
	}
}

func TestToggleStoreKeepsWorkingWhenSaveFails(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("failed to create blocker: %v", err)
	}
	// The data file's directory is a regular file, so every write fails.
	s := newTestStore(t, filepath.Join(blocker, "data.toml"))
	if err := s.Load(); err == nil {
		t.Fatalf("expected load to fail")
	}

	id := uuid.New()
	s.SetHidden(id, true)
	if !s.IsHidden(id) {
		t.Fatalf("expected in-memory flag to be set despite the failed save")
	}
	if err := s.Save(); err == nil {
		t.Fatalf("expected save to fail")
	}
}
