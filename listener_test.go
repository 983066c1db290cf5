package nametags

import (
	"errors"
	"testing"

	"github.com/df-mc/dragonfly/server"
	"github.com/df-mc/dragonfly/server/session"
	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/protocol/login"
)

type fakeListener struct {
	server.Listener

	next         session.Conn
	disconnected session.Conn
}

func (l *fakeListener) Accept() (session.Conn, error) {
	if l.next == nil {
		return nil, errors.New("listener closed")
	}
	return l.next, nil
}

func (l *fakeListener) Disconnect(conn session.Conn, _ string) error {
	l.disconnected = conn
	return nil
}

func TestListenerWrapsAcceptedConnections(t *testing.T) {
	p := newTestPlugin(t, "")
	id := uuid.New()
	raw := &fakeSessionConn{identity: login.IdentityData{Identity: id.String(), DisplayName: "Alice"}}
	inner := &fakeListener{next: raw}
	l := &Listener{Listener: inner, plugin: p}

	conn, err := l.Accept()
	if err != nil {
		t.Fatalf("unexpected accept error: %v", err)
	}
	c, ok := conn.(*Conn)
	if !ok {
		t.Fatalf("expected a *Conn, got %T", conn)
	}
	if c.UUID() != id {
		t.Fatalf("expected identity %s, got %s", id, c.UUID())
	}
	if got, ok := p.conns.get(id); !ok || got != c {
		t.Fatalf("expected the connection to be registered")
	}

	if err := l.Disconnect(conn, "bye"); err != nil {
		t.Fatalf("unexpected disconnect error: %v", err)
	}
	if inner.disconnected != raw {
		t.Fatalf("expected the inner listener to receive its own connection")
	}

	inner.next = nil
	if _, err := l.Accept(); err == nil {
		t.Fatalf("expected accept errors to pass through")
	}
}

func TestWrapListeners(t *testing.T) {
	p := newTestPlugin(t, "")
	inner := &fakeListener{}
	conf := server.Config{
		Listeners: []func(server.Config) (server.Listener, error){
			func(server.Config) (server.Listener, error) { return inner, nil },
		},
	}
	p.WrapListeners(&conf)

	l, err := conf.Listeners[0](conf)
	if err != nil {
		t.Fatalf("unexpected listener error: %v", err)
	}
	wrapped, ok := l.(*Listener)
	if !ok || wrapped.Listener != inner {
		t.Fatalf("expected the listener to be wrapped, got %T", l)
	}
}
