package nametags

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected default config on disk: %v", err)
	}
	if string(data) != defaultConfig {
		t.Fatalf("expected default config contents to be written")
	}

	if got := c.String("formatter", ""); got != FormatterMiniMessage {
		t.Fatalf("expected minimessage formatter, got %q", got)
	}
	if c.Bool("show-self", true) {
		t.Fatalf("expected show-self to default to false")
	}
	if !c.Bool("sneak.enabled", false) || !c.Defaults.Enabled {
		t.Fatalf("expected sneak and defaults to be enabled")
	}
	if c.EntityType != DefaultEntityType {
		t.Fatalf("expected entity type %q, got %q", DefaultEntityType, c.EntityType)
	}
}

func TestConfigDottedLookups(t *testing.T) {
	c, err := ParseConfig([]byte(`
show-self = true
[sneak]
enabled = false
[groups.staff]
priority = 3
view-permission = "see.staff"
`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if !c.Bool("show-self", false) {
		t.Fatalf("expected show-self to be true")
	}
	if c.Bool("sneak.enabled", true) {
		t.Fatalf("expected sneak.enabled to be false")
	}
	if !c.Bool("missing.key", true) {
		t.Fatalf("expected default for a missing key")
	}
	if got := c.String("groups.staff.view-permission", ""); got != "see.staff" {
		t.Fatalf("expected see.staff, got %q", got)
	}
	if got := c.String("show-self", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback for a mistyped key, got %q", got)
	}
	if _, ok := c.Section("groups.staff"); !ok {
		t.Fatalf("expected groups.staff section")
	}
	if _, ok := c.Section("defaults"); ok {
		t.Fatalf("expected no defaults section")
	}
	if c.Defaults.Enabled {
		t.Fatalf("expected a missing defaults section to disable defaults")
	}
}

func TestConfigViewPermission(t *testing.T) {
	c, err := ParseConfig([]byte(`
[groups.staff]
view-permission = "see.staff"
[groups."vip.plus"]
view-permission = "see.vip"
[groups.member]
priority = 1
`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if got := c.viewPermission("staff"); got != "see.staff" {
		t.Fatalf("expected see.staff, got %q", got)
	}
	if got := c.viewPermission("vip.plus"); got != "see.vip" {
		t.Fatalf("expected a dotted group name to resolve, got %q", got)
	}
	if got := c.viewPermission("member"); got != "" {
		t.Fatalf("expected no permission for member, got %q", got)
	}
	if got := c.viewPermission(""); got != "" {
		t.Fatalf("expected no permission without a group, got %q", got)
	}
}

func TestMissingFormatterUsesMiniMessage(t *testing.T) {
	p := newTestPlugin(t, "show-self = true\n")
	if _, ok := p.Formatter().(MiniMessageFormatter); !ok {
		t.Fatalf("expected minimessage when formatter is absent, got %T", p.Formatter())
	}
}

func TestParseConfigRejectsBrokenFile(t *testing.T) {
	if _, err := ParseConfig([]byte("show-self = [")); err == nil {
		t.Fatalf("expected an error for malformed TOML")
	}
}

func TestConfigRefreshInterval(t *testing.T) {
	c := &Config{RefreshInterval: 20}
	if got := c.refreshInterval(); got != time.Second {
		t.Fatalf("expected 20 ticks to be 1s, got %v", got)
	}
}

type staticPermissions map[string][]string

func (s staticPermissions) HasPermission(subject Owner, node string) bool {
	for _, name := range s[node] {
		if name == subject.Name() {
			return true
		}
	}
	return false
}

func TestConfigTemplatePicksHighestPriorityGroup(t *testing.T) {
	c, err := ParseConfig([]byte(`
[defaults]
enabled = true
text = ["default {name}"]

[groups.vip]
priority = 1
text = ["vip {name}"]

[groups.admin]
priority = 10
text = ["admin {name}"]
`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	perms := staticPermissions{
		"nametags.groups.vip":   {"Alice", "Bob"},
		"nametags.groups.admin": {"Alice"},
	}

	cases := []struct {
		name  string
		group string
		text  string
	}{
		{"Alice", "admin", "admin {name}"},
		{"Bob", "vip", "vip {name}"},
		{"Carol", "", "default {name}"},
	}
	for _, tc := range cases {
		group, lines := c.template(perms, newFakeOwner(tc.name))
		if group != tc.group || len(lines) != 1 || lines[0] != tc.text {
			t.Fatalf("%s: expected group %q with %q, got %q with %v", tc.name, tc.group, tc.text, group, lines)
		}
	}

	c.Defaults.Enabled = false
	if _, lines := c.template(perms, newFakeOwner("Carol")); len(lines) != 1 || lines[0] != "{name}" {
		t.Fatalf("expected bare name with defaults disabled, got %v", lines)
	}
}

func TestConfigPermissions(t *testing.T) {
	p := newTestPlugin(t, `
[permissions]
"nametags.command.reload" = ["alice"]
"nametags.command.toggle" = []
"see.all" = ["*"]
`)
	perms := ConfigPermissions{p: p}
	alice, bob := newFakeOwner("Alice"), newFakeOwner("Bob")

	if !perms.HasPermission(alice, PermissionReload) {
		t.Fatalf("expected name match to ignore case")
	}
	if perms.HasPermission(bob, PermissionReload) {
		t.Fatalf("expected Bob not to hold reload")
	}
	if perms.HasPermission(alice, PermissionToggle) {
		t.Fatalf("expected an empty list to override the default")
	}
	if !perms.HasPermission(bob, "see.all") {
		t.Fatalf("expected wildcard to match")
	}
	if perms.HasPermission(bob, PermissionToggleOthers) {
		t.Fatalf("expected unlisted node without default to be denied")
	}

	byID := newTestPlugin(t, "[permissions]\n\"see.all\" = [\""+bob.id.String()+"\"]\n")
	if !(ConfigPermissions{p: byID}).HasPermission(bob, "see.all") {
		t.Fatalf("expected UUID match")
	}
}
