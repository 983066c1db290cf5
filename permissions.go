package nametags

import (
	"strings"
)

// Permission nodes checked by the plugin.
const (
	PermissionReload       = "nametags.command.reload"
	PermissionToggle       = "nametags.command.toggle"
	PermissionToggleOthers = "nametags.command.toggle.others"
)

// Permissions decides whether a player holds a permission node.
type Permissions interface {
	HasPermission(subject Owner, node string) bool
}

// defaultPermissions apply to nodes the config does not list.
var defaultPermissions = map[string]bool{
	PermissionToggle: true,
}

// ConfigPermissions resolves nodes from the [permissions] table of the
// current config.
type ConfigPermissions struct {
	p *Plugin
}

// HasPermission reports whether subject is listed under node, by name, UUID
// or "*". Nodes missing from the config fall back to built-in defaults.
func (c ConfigPermissions) HasPermission(subject Owner, node string) bool {
	entries, ok := c.p.Config().Permissions[node]
	if !ok {
		return defaultPermissions[node]
	}
	id := subject.UUID().String()
	for _, entry := range entries {
		if entry == "*" || strings.EqualFold(entry, subject.Name()) || strings.EqualFold(entry, id) {
			return true
		}
	}
	return false
}
