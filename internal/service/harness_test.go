package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"partyrooms/internal/model"
	"partyrooms/internal/storage"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeTimer struct {
	at      time.Time
	fn      func(ctx context.Context)
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	pending := !t.stopped && !t.fired
	t.stopped = true
	return pending
}

// fakeRoom records every frame sent to each connection
type fakeRoom struct {
	kind   model.RoomKind
	id     string
	clock  *fakeClock
	conns  []string
	sent   map[string][][]byte
	timers []*fakeTimer
}

func (r *fakeRoom) ID() string { return r.id }
func (r *fakeRoom) Kind() model.RoomKind { return r.kind }
func (r *fakeRoom) Count() int { return len(r.conns) }
func (r *fakeRoom) ConnectionIDs() []string { return append([]string(nil), r.conns...) }

func (r *fakeRoom) Send(connID string, msg []byte) {
	r.sent[connID] = append(r.sent[connID], msg)
}

func (r *fakeRoom) Broadcast(msg []byte, except ...string) {
	for _, id := range r.conns {
		skip := false
		for _, e := range except {
			skip = skip || e == id
		}
		if !skip {
			r.Send(id, msg)
		}
	}
}

func (r *fakeRoom) Schedule(d time.Duration, fn func(ctx context.Context)) Timer {
	t := &fakeTimer{at: r.clock.now.Add(d), fn: fn}
	r.timers = append(r.timers, t)
	return t
}

type harness struct {
	t      *testing.T
	ctx    context.Context
	clock  *fakeClock
	room   *fakeRoom
	store  StateStore
	engine Engine
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T, kind model.RoomKind) *harness {
	return newHarnessWithStore(t, kind, storage.NewMemoryStore())
}

func newHarnessWithStore(t *testing.T, kind model.RoomKind, store StateStore) *harness {
	t.Helper()
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	room := &fakeRoom{kind: kind, id: "room-1", clock: clock, sent: make(map[string][][]byte)}
	engine, err := NewEngine(kind, room, Deps{
		Store:          store,
		Clock:          clock,
		Logger:         discardLogger(),
		QuizStartDelay: 2 * time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, engine.Start(context.Background()))
	return &harness{t: t, ctx: context.Background(), clock: clock, room: room, store: store, engine: engine}
}

// reopen builds a fresh engine over the same store, as after a restart
func (h *harness) reopen() *harness {
	return newHarnessWithStore(h.t, h.room.kind, h.store)
}

func (h *harness) connect(ids ...string) {
	for _, id := range ids {
		h.room.conns = append(h.room.conns, id)
		h.engine.OnConnect(h.ctx, id)
	}
}

func (h *harness) disconnect(id string) {
	for i, c := range h.room.conns {
		if c == id {
			h.room.conns = append(h.room.conns[:i], h.room.conns[i+1:]...)
			break
		}
	}
	h.engine.OnClose(h.ctx, id)
}

func (h *harness) send(connID string, msg any) {
	h.t.Helper()
	var data []byte
	switch m := msg.(type) {
	case string:
		data = []byte(m)
	default:
		var err error
		data, err = json.Marshal(m)
		require.NoError(h.t, err)
	}
	h.engine.OnMessage(h.ctx, connID, data)
}

// advance moves the clock and fires due timers in deadline order
func (h *harness) advance(d time.Duration) {
	target := h.clock.now.Add(d)
	for {
		due := make([]*fakeTimer, 0)
		for _, t := range h.room.timers {
			if !t.stopped && !t.fired && !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			break
		}
		sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
		t := due[0]
		h.clock.now = t.at
		t.fired = true
		t.fn(h.ctx)
	}
	h.clock.now = target
}

// fire runs a timer callback even if it was stopped, as when the timer
// raced with the command that stopped it
func (h *harness) fire(t *fakeTimer) {
	t.fired = true
	t.fn(h.ctx)
}

type event map[string]any

// events decodes every frame connID received, optionally filtered by type
func (h *harness) events(connID string, types ...string) []event {
	h.t.Helper()
	var out []event
	for _, raw := range h.room.sent[connID] {
		var ev event
		require.NoError(h.t, json.Unmarshal(raw, &ev))
		if len(types) > 0 {
			match := false
			for _, typ := range types {
				match = match || ev["type"] == typ
			}
			if !match {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}

// last returns the most recent event of type typ received by connID
func (h *harness) last(connID, typ string) event {
	h.t.Helper()
	evs := h.events(connID, typ)
	require.NotEmpty(h.t, evs, "no %s event for %s", typ, connID)
	return evs[len(evs)-1]
}

// errors returns the error messages received by connID
func (h *harness) errors(connID string) []string {
	var out []string
	for _, ev := range h.events(connID, "error") {
		out = append(out, ev["message"].(string))
	}
	return out
}

func (h *harness) clear() {
	h.room.sent = make(map[string][][]byte)
}
