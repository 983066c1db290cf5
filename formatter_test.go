package nametags

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatters(t *testing.T) {
	owner := newFakeOwner("Alice")

	if got := (PlainFormatter{}).Format("{name} in {world}", owner); got != "Alice in overworld" {
		t.Fatalf("expected plain placeholders, got %q", got)
	}
	if got := (PlainFormatter{}).Format("{uuid}", owner); got != owner.id.String() {
		t.Fatalf("expected uuid placeholder, got %q", got)
	}
	if got := (LegacyFormatter{}).Format("&cHi &z{name} & co", owner); got != "§cHi &zAlice & co" {
		t.Fatalf("expected legacy codes translated, got %q", got)
	}

	got := (MiniMessageFormatter{}).Format("<red>{name}</red> 100%", owner)
	if strings.Contains(got, "<red>") || !strings.Contains(got, "§c") {
		t.Fatalf("expected colour tags rendered, got %q", got)
	}
	if !strings.Contains(got, "Alice") || !strings.Contains(got, "100%") {
		t.Fatalf("expected text to survive formatting, got %q", got)
	}
}

func TestFormatterByID(t *testing.T) {
	for _, id := range []string{"minimessage", "Legacy", "PLAIN"} {
		if _, ok := FormatterByID(id); !ok {
			t.Fatalf("expected formatter %q to exist", id)
		}
	}
	if _, ok := FormatterByID("mystery"); ok {
		t.Fatalf("expected unknown formatter to be rejected")
	}
}

func TestUnknownFormatterFallsBack(t *testing.T) {
	p := newTestPlugin(t, `formatter = "mystery"`)
	if _, ok := p.Formatter().(MiniMessageFormatter); !ok {
		t.Fatalf("expected minimessage fallback, got %T", p.Formatter())
	}
}

func TestBuilderFormatterOverridesConfig(t *testing.T) {
	p, err := NewBuilder().Directory(t.TempDir()).Formatter(PlainFormatter{}).Manual().Init()
	if err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })

	alice, _ := join(p, "Alice")
	if got := entityOf(t, p, alice).Passenger().Text(); got != "<white>Alice</white>" {
		t.Fatalf("expected the default template rendered as plain text, got %q", got)
	}
}

func TestMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.toml")
	m, err := LoadMessages(path)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default messages to be written: %v", err)
	}

	if got := m.Get("nametags.toggle.other-on", "{player}", "Bob"); got != "§7Name tags are now §ashown §7for §eBob§7." {
		t.Fatalf("expected formatted message, got %q", got)
	}
	if got := m.Get("nametags.nope"); got != "Message not found: nametags.nope" {
		t.Fatalf("expected not-found fallback, got %q", got)
	}

	// Overrides apply on top of the defaults.
	if err := os.WriteFile(path, []byte("[nametags.reload]\nreloaded = \"&bDone\"\n"), 0o644); err != nil {
		t.Fatalf("failed to write messages: %v", err)
	}
	if err := m.load(path); err != nil {
		t.Fatalf("unexpected reload error: %v", err)
	}
	if got := m.Get("nametags.reload.reloaded"); got != "§bDone" {
		t.Fatalf("expected override, got %q", got)
	}
	if got := m.Get("nametags.reload.failed"); strings.HasPrefix(got, "Message not found") {
		t.Fatalf("expected default to survive a partial override")
	}
}
