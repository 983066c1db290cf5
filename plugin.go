package nametags

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Plugin is the name tag system of one server. It owns the entity manager,
// the toggle store, the scheduler and the current configuration, and is
// passed explicitly to every part that needs them.
type Plugin struct {
	log *slog.Logger

	configPath   string
	messagesPath string

	conf      atomic.Pointer[Config]
	formatter atomic.Pointer[formatterHolder]
	// fixedFormatter overrides the formatter config key when set
	fixedFormatter Formatter

	perms    Permissions
	toggles  *ToggleStore
	messages *Messages

	manager   *Manager
	filter    *Filter
	players   *registry
	conns     *connRegistry
	scheduler *Scheduler

	// mu serialises event handling
	mu sync.Mutex
}

type formatterHolder struct {
	f Formatter
}

// Config returns the current configuration.
func (p *Plugin) Config() *Config {
	return p.conf.Load()
}

// Formatter returns the formatter tag text is rendered with.
func (p *Plugin) Formatter() Formatter {
	return p.formatter.Load().f
}

// Manager returns the entity manager.
func (p *Plugin) Manager() *Manager {
	return p.manager
}

// Toggles returns the toggle store.
func (p *Plugin) Toggles() *ToggleStore {
	return p.toggles
}

// Messages returns the user facing messages.
func (p *Plugin) Messages() *Messages {
	return p.messages
}

// Scheduler returns the job scheduler.
func (p *Plugin) Scheduler() *Scheduler {
	return p.scheduler
}

// Logger returns the plugin's logger.
func (p *Plugin) Logger() *slog.Logger {
	return p.log
}

// setConfig installs conf and the formatter it selects.
func (p *Plugin) setConfig(conf *Config) {
	f := p.fixedFormatter
	if f == nil {
		var ok bool
		id := conf.String("formatter", FormatterMiniMessage)
		if f, ok = FormatterByID(id); !ok {
			p.log.Warn("nametags: unknown formatter, using minimessage", "formatter", id)
			f = MiniMessageFormatter{}
		}
	}
	p.formatter.Store(&formatterHolder{f: f})
	p.conf.Store(conf)
}

// Join registers an online player and creates their name tag. viewer is the
// player's connection.
func (p *Plugin) Join(owner Owner, viewer Viewer) {
	p.players.add(owner, viewer)
	p.Dispatch(Event{Kind: EventJoin, Owner: owner.UUID()})
}

// Quit removes a player and destroys their name tag.
func (p *Plugin) Quit(id uuid.UUID) {
	p.Dispatch(Event{Kind: EventQuit, Owner: id})
}

// Online reports whether the player id has joined and not quit.
func (p *Plugin) Online(id uuid.UUID) bool {
	_, ok := p.players.get(id)
	return ok
}

// canSee reports whether viewer should be in the viewer set of e.
func (p *Plugin) canSee(e *Entity, viewer uuid.UUID) bool {
	o, ok := p.players.get(viewer)
	if !ok || p.toggles.IsHidden(viewer) {
		return false
	}
	conf := p.Config()
	if viewer == e.owner.UUID() {
		return conf.Bool("show-self", false) && !e.dead.Load()
	}
	if perm := conf.viewPermission(e.group); perm != "" {
		return p.perms.HasPermission(o.owner, perm)
	}
	return true
}

// Reload re-reads the configuration, messages and toggle data and recreates
// every name tag. Viewers keep seeing the tags they saw before.
func (p *Plugin) Reload() error {
	conf, err := LoadConfig(p.configPath)
	if err != nil {
		p.log.Error("nametags: reload config", "path", p.configPath, "error", err)
		return fmt.Errorf("reload: %w", err)
	}
	p.setConfig(conf)

	if err := p.messages.load(p.messagesPath); err != nil {
		p.log.Error("nametags: reload messages", "path", p.messagesPath, "error", err)
	}
	_ = p.toggles.Reload()

	p.Dispatch(Event{Kind: EventReload})
	return nil
}

// Close stops the scheduler and flushes the toggle store.
func (p *Plugin) Close() error {
	p.scheduler.Stop()
	if err := p.toggles.Save(); err != nil {
		p.log.Error("nametags: save toggle data", "error", err)
		return err
	}
	return nil
}

// paths returns the config, messages and data file paths under dir.
func paths(dir string) (config, messages, data string) {
	return filepath.Join(dir, "config.toml"), filepath.Join(dir, "messages.toml"), filepath.Join(dir, "data.toml")
}
