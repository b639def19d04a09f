package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"partyrooms/internal/model"
	"partyrooms/internal/service"
)

type roomKey struct {
	kind model.RoomKind
	id   string
}

// Hub owns the live rooms. A room is created by its first connection and
// evicted when its last connection leaves.
type Hub struct {
	deps service.Deps
	log  *slog.Logger

	mu    sync.Mutex
	rooms map[roomKey]*Room
	// done channels of evicted rooms that may still be flushing state
	closing map[roomKey]<-chan struct{}
}

// NewHub creates a new hub. Engines are built with deps.
func NewHub(deps service.Deps) *Hub {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Hub{
		deps:    deps,
		log:     deps.Logger,
		rooms:   make(map[roomKey]*Room),
		closing: make(map[roomKey]<-chan struct{}),
	}
}

// Join counts conn as a member of the room, creating the room if needed.
// The connection receives nothing until Connect. A connection that reuses
// a live id takes over from the previous one on Connect.
func (h *Hub) Join(kind model.RoomKind, roomID string, conn *Connection) (*Room, error) {
	key := roomKey{kind: kind, id: roomID}

	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[key]
	if !ok {
		var err error
		r, err = newRoom(kind, roomID, h.deps, h.closing[key])
		if err != nil {
			return nil, err
		}
		delete(h.closing, key)
		h.rooms[key] = r
		go r.run()
		h.log.Info("room opened", "kind", kind, "room", roomID)
	}
	r.members[conn.ID]++
	return r, nil
}

// Leave disconnects conn and evicts the room once it is empty
func (h *Hub) Leave(r *Room, conn *Connection) {
	key := roomKey{kind: r.kind, id: r.id}

	h.mu.Lock()
	if r.members[conn.ID]--; r.members[conn.ID] <= 0 {
		delete(r.members, conn.ID)
	}
	evict := len(r.members) == 0
	if evict {
		delete(h.rooms, key)
		h.closing[key] = r.done
	}
	h.mu.Unlock()

	r.disconnect(conn)
	if evict {
		r.stop()
		h.log.Info("room evicted", "kind", r.kind, "room", r.id)
	}
}

// Inspect implements service.Directory
func (h *Hub) Inspect(ctx context.Context, kind model.RoomKind, roomID string) (any, int, bool, error) {
	h.mu.Lock()
	r, ok := h.rooms[roomKey{kind: kind, id: roomID}]
	h.mu.Unlock()
	if !ok {
		return nil, 0, false, nil
	}

	type result struct {
		snapshot json.RawMessage
		count    int
		err      error
	}
	res := make(chan result, 1)
	posted := r.post(func(context.Context) {
		var out result
		out.count = len(r.conns)
		if snap := r.engine.Snapshot(); snap != nil {
			out.snapshot, out.err = json.Marshal(snap)
		}
		res <- out
	})
	if !posted {
		return nil, 0, false, nil
	}

	select {
	case out := <-res:
		if out.err != nil {
			return nil, 0, true, out.err
		}
		if out.snapshot == nil {
			return nil, out.count, true, nil
		}
		return out.snapshot, out.count, true, nil
	case <-ctx.Done():
		return nil, 0, true, ctx.Err()
	}
}

// Shutdown stops every live room and waits for them to finish
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for key, r := range h.rooms {
		rooms = append(rooms, r)
		delete(h.rooms, key)
	}
	h.mu.Unlock()

	for _, r := range rooms {
		r.stop()
	}
	for _, r := range rooms {
		select {
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
