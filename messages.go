package nametags

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

//go:embed messages.toml
var defaultMessages []byte

// Messages holds the user facing strings, keyed by dotted path.
type Messages struct {
	mu      sync.RWMutex
	entries map[string]string
}

// LoadMessages reads the messages file at path over the built-in defaults.
// A missing file is created from the defaults.
func LoadMessages(path string) (*Messages, error) {
	m := &Messages{}
	return m, m.load(path)
}

// newDefaultMessages returns the built-in messages only.
func newDefaultMessages() *Messages {
	entries := make(map[string]string)
	_ = decodeMessages(defaultMessages, entries)
	return &Messages{entries: entries}
}

func (m *Messages) load(path string) error {
	entries := make(map[string]string)
	if err := decodeMessages(defaultMessages, entries); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create messages directory: %w", err)
		}
		if err := os.WriteFile(path, defaultMessages, 0o644); err != nil {
			return fmt.Errorf("write default messages: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read messages: %w", err)
	default:
		if err := decodeMessages(data, entries); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.entries = entries
	m.mu.Unlock()
	return nil
}

// decodeMessages flattens a TOML document into dotted keys.
func decodeMessages(data []byte, into map[string]string) error {
	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("decode messages: %w", err)
	}
	flatten("", tree, into)
	return nil
}

func flatten(prefix string, tree map[string]any, into map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := v.(type) {
		case map[string]any:
			flatten(key, v, into)
		case string:
			into[key] = v
		}
	}
}

// Get returns the message at key with its colour codes translated. args are
// placeholder/value pairs, such as "{player}", name.
func (m *Messages) Get(key string, args ...string) string {
	m.mu.RLock()
	msg, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "Message not found: " + key
	}
	if len(args) > 1 {
		msg = strings.NewReplacer(args...).Replace(msg)
	}
	return translateAlternateColours(msg)
}
