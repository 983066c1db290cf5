package nametags

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// defaultConfig is written to disk when no config file exists.
const defaultConfig = `# Formatter used to render tag text: "minimessage", "legacy" or "plain".
formatter = "minimessage"

# Show players their own name tag.
show-self = false

# Actor type of the passenger carrying the tag, and its scale.
entity-type = "minecraft:armor_stand"
scale = 1.0

# Re-render tag text every this many ticks. 0 disables periodic refreshes.
refresh-interval = 0

[sneak]
# Hide the tag behind blocks while its owner sneaks.
enabled = true

[defaults]
# Apply the default text to players without a group.
enabled = true
text = ["<white>{name}</white>"]

# Groups are picked by the permission nametags.groups.<name>; the highest
# priority group a player holds wins. view-permission, if set, limits who can
# see tags rendered from the group.
#
# [groups.staff]
# priority = 10
# text = ["<red>[Staff]</red> {name}"]
# view-permission = ""

[permissions]
# Permission node to a list of player names, UUIDs or "*" for everyone.
"nametags.command.toggle" = ["*"]
`

// Config is the parsed plugin configuration.
//
// Sections that are absent from the file leave their feature disabled.
//
// Switches such as show-self, sneak.enabled and formatter are read through
// the dotted lookups.
type Config struct {
	EntityType      string                 `toml:"entity-type"`
	Scale           float32                `toml:"scale"`
	RefreshInterval int                    `toml:"refresh-interval"`
	Defaults        DefaultsConfig         `toml:"defaults"`
	Groups          map[string]GroupConfig `toml:"groups"`
	Permissions     map[string][]string    `toml:"permissions"`

	// raw is the untyped tree, for dotted-path lookups
	raw map[string]any
}

// DefaultsConfig configures the text of players without a group.
type DefaultsConfig struct {
	Enabled bool     `toml:"enabled"`
	Text    []string `toml:"text"`
}

// GroupConfig is a named tag template.
type GroupConfig struct {
	Priority int      `toml:"priority"`
	Text     []string `toml:"text"`
}

// DefaultConfig returns the configuration written for new installations.
func DefaultConfig() *Config {
	c, err := ParseConfig([]byte(defaultConfig))
	if err != nil {
		panic("nametags: default config: " + err.Error())
	}
	return c
}

// ParseConfig parses a TOML configuration.
func ParseConfig(data []byte) (*Config, error) {
	c := &Config{}
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := toml.Unmarshal(data, &c.raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// LoadConfig reads the configuration at path, writing the default
// configuration there first if the file does not exist.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := saveDefaultConfig(path); err != nil {
			return nil, err
		}
		data = []byte(defaultConfig)
	} else if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

func saveDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// lookup walks a dotted path through the raw tree.
func (c *Config) lookup(path string) (any, bool) {
	var cur any = c.raw
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Bool returns the boolean at a dotted path, or def.
func (c *Config) Bool(path string, def bool) bool {
	v, ok := c.lookup(path)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// String returns the string at a dotted path, or def.
func (c *Config) String(path string, def string) string {
	v, ok := c.lookup(path)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// viewPermission returns the permission a viewer needs to see tags of group,
// or "". Group names are looked up whole so they may contain dots.
func (c *Config) viewPermission(group string) string {
	groups, ok := c.Section("groups")
	if !ok {
		return ""
	}
	g, ok := groups[group].(map[string]any)
	if !ok {
		return ""
	}
	perm, _ := g["view-permission"].(string)
	return perm
}

// Section returns the table at a dotted path.
func (c *Config) Section(path string) (map[string]any, bool) {
	v, ok := c.lookup(path)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// refreshInterval converts the refresh interval from ticks.
func (c *Config) refreshInterval() time.Duration {
	return time.Duration(c.RefreshInterval) * 50 * time.Millisecond
}

// template resolves the group and the text template of owner.
func (c *Config) template(perms Permissions, owner Owner) (string, []string) {
	names := make([]string, 0, len(c.Groups))
	for name := range c.Groups {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		gi, gj := c.Groups[names[i]], c.Groups[names[j]]
		if gi.Priority != gj.Priority {
			return gi.Priority > gj.Priority
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		if perms.HasPermission(owner, "nametags.groups."+name) {
			return name, c.Groups[name].Text
		}
	}
	if c.Defaults.Enabled && len(c.Defaults.Text) > 0 {
		return "", c.Defaults.Text
	}
	return "", []string{"{name}"}
}
