package nametags

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

// toggleEntry is the persisted record of one player.
type toggleEntry struct {
	ToggleOff bool `toml:"toggle-off"`
}

// ToggleStore persists which players have turned name tags off. A hidden
// player sees no name tags.
//
// The store is backed by a TOML file with one table per player UUID. Players
// without a table are visible. I/O failures are logged and the store keeps
// working from memory.
type ToggleStore struct {
	path string
	log  *slog.Logger

	mu     sync.RWMutex
	hidden map[uuid.UUID]struct{}

	// onChange is called after every flip of a player's flag
	onChange func(id uuid.UUID, hidden bool)

	// saveMu serialises writes of the backing file
	saveMu sync.Mutex
}

// NewToggleStore creates a toggle store backed by path. Call Load to read it.
func NewToggleStore(path string, log *slog.Logger) *ToggleStore {
	if log == nil {
		log = slog.Default()
	}
	return &ToggleStore{
		path:   path,
		log:    log,
		hidden: make(map[uuid.UUID]struct{}),
	}
}

// OnChange sets the function called whenever a player's flag flips.
func (s *ToggleStore) OnChange(fn func(id uuid.UUID, hidden bool)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Load reads the backing file, creating an empty one if it does not exist.
// On error the in-memory state is left untouched.
func (s *ToggleStore) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.write(nil); err != nil {
			return err
		}
		data = nil
	} else if err != nil {
		return fmt.Errorf("read toggle data: %w", err)
	}

	entries := make(map[string]toggleEntry)
	if err := toml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decode toggle data: %w", err)
	}

	hidden := make(map[uuid.UUID]struct{}, len(entries))
	for key, entry := range entries {
		id, err := uuid.Parse(key)
		if err != nil {
			s.log.Warn("nametags: skipping invalid toggle entry", "key", key, "error", err)
			continue
		}
		if entry.ToggleOff {
			hidden[id] = struct{}{}
		}
	}

	s.mu.Lock()
	s.hidden = hidden
	s.mu.Unlock()
	return nil
}

// Reload re-reads the backing file. Failures are logged and leave the
// in-memory state in place.
func (s *ToggleStore) Reload() error {
	if err := s.Load(); err != nil {
		s.log.Error("nametags: reload toggle data", "path", s.path, "error", err)
		return err
	}
	return nil
}

// IsHidden reports whether id has name tags turned off.
func (s *ToggleStore) IsHidden(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.hidden[id]
	return ok
}

// SetHidden sets whether id has name tags turned off and persists the store.
// Setting the flag it already has still persists but does not notify.
func (s *ToggleStore) SetHidden(id uuid.UUID, hidden bool) {
	s.mu.Lock()
	_, was := s.hidden[id]
	if hidden {
		s.hidden[id] = struct{}{}
	} else {
		delete(s.hidden, id)
	}
	onChange := s.onChange
	s.mu.Unlock()

	if err := s.Save(); err != nil {
		s.log.Error("nametags: save toggle data", "path", s.path, "error", err)
	}
	if was != hidden && onChange != nil {
		onChange(id, hidden)
	}
}

// Save writes the current state to the backing file.
func (s *ToggleStore) Save() error {
	s.mu.RLock()
	entries := make(map[string]toggleEntry, len(s.hidden))
	for id := range s.hidden {
		entries[id.String()] = toggleEntry{ToggleOff: true}
	}
	s.mu.RUnlock()
	return s.write(entries)
}

func (s *ToggleStore) write(entries map[string]toggleEntry) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	var data []byte
	if len(entries) > 0 {
		var err error
		if data, err = toml.Marshal(entries); err != nil {
			return fmt.Errorf("encode toggle data: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write toggle data: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace toggle data: %w", err)
	}
	return nil
}
