package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"partyrooms/internal/model"
	"partyrooms/internal/service"
)

const inboxSize = 256

// Connection is one client attached to a room
type Connection struct {
	ID   string
	Send chan []byte
}

// NewConnection creates a connection with a send buffer of size buffer
func NewConnection(id string, buffer int) *Connection {
	return &Connection{ID: id, Send: make(chan []byte, buffer)}
}

// Room is a live room instance. Its engine and connection table are only
// touched by the run goroutine; everything else posts into the inbox.
type Room struct {
	kind   model.RoomKind
	id     string
	engine service.Engine
	log    *slog.Logger

	// members counts the sockets per connection id, guarded by Hub.mu
	members map[string]int
	// conns is owned by run
	conns map[string]*Connection

	mu     sync.RWMutex
	closed bool
	inbox  chan func(ctx context.Context)
	prev   <-chan struct{}
	done   chan struct{}
}

func newRoom(kind model.RoomKind, id string, deps service.Deps, prev <-chan struct{}) (*Room, error) {
	r := &Room{
		kind:    kind,
		id:      id,
		log:     deps.Logger.With("kind", kind, "room", id),
		members: make(map[string]int),
		conns:   make(map[string]*Connection),
		inbox:   make(chan func(ctx context.Context), inboxSize),
		prev:    prev,
		done:    make(chan struct{}),
	}
	engine, err := service.NewEngine(kind, r, deps)
	if err != nil {
		return nil, err
	}
	r.engine = engine
	return r, nil
}

func (r *Room) run() {
	defer close(r.done)
	if r.prev != nil {
		<-r.prev
	}

	ctx := context.Background()
	if err := r.engine.Start(ctx); err != nil {
		r.log.Error("failed to restore room state", "error", err)
	}
	for fn := range r.inbox {
		r.exec(ctx, fn)
	}
	r.engine.Close()
}

func (r *Room) exec(ctx context.Context, fn func(ctx context.Context)) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("room event panicked", "panic", p)
		}
	}()
	fn(ctx)
}

// post queues fn for the run goroutine. It reports false once the room
// has been stopped.
func (r *Room) post(fn func(ctx context.Context)) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	r.inbox <- fn
	return true
}

func (r *Room) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		close(r.inbox)
	}
}

// Connect attaches conn and hands it to the engine. A previous socket with
// the same id is closed and replaced without an OnClose, so the engine
// sees a reconnect as one continuous connection.
func (r *Room) Connect(conn *Connection) {
	r.post(func(ctx context.Context) {
		if old, ok := r.conns[conn.ID]; ok && old != conn {
			close(old.Send)
			r.log.Debug("connection replaced", "conn", conn.ID)
		}
		r.conns[conn.ID] = conn
		r.log.Debug("connection opened", "conn", conn.ID)
		r.engine.OnConnect(ctx, conn.ID)
	})
}

// Receive hands an inbound text frame to the engine
func (r *Room) Receive(conn *Connection, data []byte) {
	r.post(func(ctx context.Context) {
		if r.conns[conn.ID] != conn {
			return
		}
		r.engine.OnMessage(ctx, conn.ID, data)
	})
}

func (r *Room) disconnect(conn *Connection) {
	r.post(func(ctx context.Context) {
		if r.conns[conn.ID] != conn {
			return
		}
		delete(r.conns, conn.ID)
		close(conn.Send)
		r.log.Debug("connection closed", "conn", conn.ID)
		r.engine.OnClose(ctx, conn.ID)
	})
}

func (r *Room) ID() string { return r.id }

func (r *Room) Kind() model.RoomKind { return r.kind }

func (r *Room) Count() int { return len(r.conns) }

func (r *Room) ConnectionIDs() []string {
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

func (r *Room) Send(connID string, msg []byte) {
	if conn, ok := r.conns[connID]; ok {
		r.deliver(conn, msg)
	}
}

func (r *Room) Broadcast(msg []byte, except ...string) {
	for id, conn := range r.conns {
		if lo.Contains(except, id) {
			continue
		}
		r.deliver(conn, msg)
	}
}

func (r *Room) deliver(conn *Connection, msg []byte) {
	select {
	case conn.Send <- msg:
	default:
		// Drop message if buffer full
		r.log.Warn("send buffer full, dropping message", "conn", conn.ID)
	}
}

// Schedule runs fn on the room after d
func (r *Room) Schedule(d time.Duration, fn func(ctx context.Context)) service.Timer {
	return time.AfterFunc(d, func() {
		r.post(fn)
	})
}
