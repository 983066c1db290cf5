package nametags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Builder configures the plugin before initialization.
// Use NewBuilder() to create a builder and chain configuration methods.
type Builder struct {
	dir       string
	log       *slog.Logger
	formatter Formatter
	perms     Permissions
	tickRate  time.Duration
	manual    bool
}

// NewBuilder creates a new builder storing its files in plugins/nametags.
func NewBuilder() *Builder {
	return &Builder{dir: "plugins/nametags"}
}

// Directory sets the directory holding config.toml, messages.toml and data.toml.
func (b *Builder) Directory(dir string) *Builder {
	b.dir = dir
	return b
}

// Logger sets the logger. slog.Default() is used otherwise.
func (b *Builder) Logger(log *slog.Logger) *Builder {
	b.log = log
	return b
}

// Formatter overrides the formatter selected by the config.
func (b *Builder) Formatter(f Formatter) *Builder {
	b.formatter = f
	return b
}

// Permissions replaces the config based permission lookup, for servers that
// keep permissions elsewhere.
//
// Example:
//
//	builder.Permissions(ranks.Permissions{DB: db})
func (b *Builder) Permissions(perms Permissions) *Builder {
	b.perms = perms
	return b
}

// TickRate sets how often the scheduler checks for due jobs.
func (b *Builder) TickRate(d time.Duration) *Builder {
	b.tickRate = d
	return b
}

// Manual leaves the scheduler stopped. Due jobs then only run when
// Scheduler().RunDue is called.
func (b *Builder) Manual() *Builder {
	b.manual = true
	return b
}

// Init loads the configuration and initializes the plugin. Only a broken
// configuration file is fatal; messages and toggle data fall back to defaults
// and memory.
func (b *Builder) Init() (*Plugin, error) {
	log := b.log
	if log == nil {
		log = slog.Default()
	}
	configPath, messagesPath, dataPath := paths(b.dir)

	p := &Plugin{
		log:            log,
		configPath:     configPath,
		messagesPath:   messagesPath,
		fixedFormatter: b.formatter,
		perms:          b.perms,
		players:        newRegistry(),
		conns:          newConnRegistry(),
		scheduler:      newScheduler(log, b.tickRate),
	}
	p.manager = newManager(p)
	p.filter = &Filter{p: p}
	if p.perms == nil {
		p.perms = ConfigPermissions{p: p}
	}

	conf, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	p.setConfig(conf)

	if p.messages, err = LoadMessages(messagesPath); err != nil {
		log.Error("nametags: load messages, using defaults", "path", messagesPath, "error", err)
		p.messages = newDefaultMessages()
	}

	p.toggles = NewToggleStore(dataPath, log)
	if err := p.toggles.Load(); err != nil {
		log.Error("nametags: load toggle data", "path", dataPath, "error", err)
	}
	p.toggles.OnChange(func(id uuid.UUID, hidden bool) {
		p.Dispatch(Event{Kind: EventToggle, Owner: id, Hidden: hidden})
	})

	if !b.manual {
		p.scheduler.Start()
	}
	return p, nil
}
