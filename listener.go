package nametags

import (
	"github.com/df-mc/dragonfly/server"
	"github.com/df-mc/dragonfly/server/session"
)

// Listener wraps a Dragonfly listener so that every accepted connection is
// filtered by the plugin.
type Listener struct {
	server.Listener
	plugin *Plugin
}

// Accept accepts the next connection and wraps it in a *Conn.
func (l *Listener) Accept() (session.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	conn := newConn(l.plugin, c)
	l.plugin.conns.add(conn)
	return conn, nil
}

// Disconnect disconnects a connection accepted by this listener.
func (l *Listener) Disconnect(conn session.Conn, reason string) error {
	if c, ok := conn.(*Conn); ok {
		conn = c.Conn
	}
	return l.Listener.Disconnect(conn, reason)
}

// WrapListeners wraps every listener of conf. Call it before conf.New().
func (p *Plugin) WrapListeners(conf *server.Config) {
	for i, f := range conf.Listeners {
		conf.Listeners[i] = func(c server.Config) (server.Listener, error) {
			l, err := f(c)
			if err != nil {
				return nil, err
			}
			return &Listener{Listener: l, plugin: p}, nil
		}
	}
}
