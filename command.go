package nametags

import (
	"strings"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
)

// Commands returns the plugin's commands, ready for cmd.Register.
func (p *Plugin) Commands() []cmd.Command {
	return []cmd.Command{
		cmd.New("nametags-reload", "Reloads the name tag configuration.", []string{"ntreload"}, reloadCommand{p: p}),
		cmd.New("nametags-toggle", "Shows or hides name tags.", []string{"nttoggle"}, toggleCommand{p: p}),
	}
}

// sender returns the Owner behind a command source, or nil for the console.
func (p *Plugin) sender(src cmd.Source) Owner {
	pl, ok := src.(*player.Player)
	if !ok {
		return nil
	}
	if o, ok := p.players.get(pl.UUID()); ok {
		return o.owner
	}
	return newPlayerOwner(pl)
}

// ReloadAs runs the reload command for sender, nil being the console, and
// returns the reply.
func (p *Plugin) ReloadAs(sender Owner) string {
	if sender != nil && !p.perms.HasPermission(sender, PermissionReload) {
		return p.messages.Get("nametags.reload.no-permission")
	}
	if err := p.Reload(); err != nil {
		return p.messages.Get("nametags.reload.failed")
	}
	return p.messages.Get("nametags.reload.reloaded")
}

// Toggle runs the toggle command for sender, nil being the console. state is
// "on", "off" or empty to flip; target names another online player. It
// returns the replies in order.
func (p *Plugin) Toggle(sender Owner, state, target string) []string {
	m := p.messages
	if sender != nil && !p.perms.HasPermission(sender, PermissionToggle) {
		return []string{m.Get("nametags.toggle.no-permission")}
	}

	var (
		subject Owner
		hidden  bool
		out     []string
	)
	if state == "" {
		if sender == nil {
			return []string{m.Get("nametags.toggle.usage")}
		}
		subject = sender
		was := p.toggles.IsHidden(sender.UUID())
		hidden = !was
		current := "ON"
		if was {
			current = "OFF"
		}
		out = append(out, m.Get("nametags.toggle.current-state", "{state}", current))
	} else {
		switch strings.ToLower(state) {
		case "on":
			hidden = false
		case "off":
			hidden = true
		default:
			return []string{m.Get("nametags.toggle.usage")}
		}

		switch {
		case target != "":
			if sender != nil && !p.perms.HasPermission(sender, PermissionToggleOthers) {
				return []string{m.Get("nametags.toggle.no-permission-others")}
			}
			o, ok := p.players.byName(target)
			if !ok {
				return []string{m.Get("nametags.toggle.player-not-found")}
			}
			subject = o.owner
		case sender == nil:
			return []string{m.Get("nametags.toggle.usage")}
		default:
			subject = sender
		}
	}

	p.toggles.SetHidden(subject.UUID(), hidden)

	if sender != nil && subject.UUID() == sender.UUID() {
		if hidden {
			return append(out, m.Get("nametags.toggle.toggle-off"))
		}
		return append(out, m.Get("nametags.toggle.toggle-on"))
	}
	if hidden {
		return append(out, m.Get("nametags.toggle.other-off", "{player}", subject.Name()))
	}
	return append(out, m.Get("nametags.toggle.other-on", "{player}", subject.Name()))
}

// reloadCommand implements /nametags-reload.
type reloadCommand struct {
	p *Plugin
}

// Run reloads the plugin and reports the result to the source.
func (c reloadCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	o.Print(c.p.ReloadAs(c.p.sender(src)))
}

// toggleCommand implements /nametags-toggle [on|off] [player].
type toggleCommand struct {
	p       *Plugin
	State   cmd.Optional[toggleState]  `cmd:"state"`
	Targets cmd.Optional[[]cmd.Target] `cmd:"player"`
}

// Run toggles name tags for the source or the named target.
func (c toggleCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	state, _ := c.State.Load()
	var target string
	if targets, ok := c.Targets.Load(); ok {
		for _, t := range targets {
			if pl, ok := t.(*player.Player); ok {
				target = pl.Name()
				break
			}
		}
		if target == "" {
			o.Error(c.p.messages.Get("nametags.toggle.player-not-found"))
			return
		}
	}
	for _, msg := range c.p.Toggle(c.p.sender(src), string(state), target) {
		o.Print(msg)
	}
}

// toggleState is the on|off argument of the toggle command.
type toggleState string

// Type returns the name of the enum shown in command usage.
func (toggleState) Type() string { return "state" }

// Options returns the accepted states.
func (toggleState) Options(cmd.Source) []string { return []string{"on", "off"} }
