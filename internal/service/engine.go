package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"partyrooms/internal/model"
	"partyrooms/internal/protocol"
)

// Engine is the session logic of one room. All methods are called from
// the room's goroutine, one at a time.
type Engine interface {
	// Start restores persisted state before the first connection is admitted
	Start(ctx context.Context) error
	OnConnect(ctx context.Context, connID string)
	OnClose(ctx context.Context, connID string)
	OnMessage(ctx context.Context, connID string, data []byte)
	// Snapshot returns the current session record, or nil
	Snapshot() any
	// Close cancels pending timers when the room is evicted
	Close()
}

// Deps are the collaborators shared by every engine
type Deps struct {
	Store  StateStore
	Clock  Clock
	Logger *slog.Logger
	// QuizStartDelay is the grace period between host_start and the first question
	QuizStartDelay time.Duration
}

// NewEngine builds the engine serving kind inside room
func NewEngine(kind model.RoomKind, room Room, deps Deps) (Engine, error) {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	switch kind {
	case model.KindPolls:
		return NewPollService(room, deps), nil
	case model.KindKahoot:
		return NewGameService(room, deps), nil
	case model.KindFeedback:
		return NewFeedbackService(room, deps), nil
	case model.KindFeelings:
		return NewFeelingsService(room, deps), nil
	}
	return nil, fmt.Errorf("unknown room kind %q", kind)
}

// base carries the plumbing shared by the engines: event fan-out,
// rejections and JSON persistence under the room's scope
type base struct {
	room  Room
	store StateStore
	clock Clock
	log   *slog.Logger
	scope string
}

func newBase(room Room, deps Deps) base {
	return base{
		room:  room,
		store: deps.Store,
		clock: deps.Clock,
		log:   deps.Logger.With("kind", room.Kind(), "room", room.ID()),
		scope: Scope(room.Kind(), room.ID()),
	}
}

func (b *base) now() int64 {
	return b.clock.Now().UnixMilli()
}

func (b *base) encode(event any) []byte {
	msg, err := protocol.Encode(event)
	if err != nil {
		b.log.Error("failed to encode event", "error", err)
		return nil
	}
	return msg
}

func (b *base) send(connID string, event any) {
	if msg := b.encode(event); msg != nil {
		b.room.Send(connID, msg)
	}
}

func (b *base) broadcast(event any, except ...string) {
	if msg := b.encode(event); msg != nil {
		b.room.Broadcast(msg, except...)
	}
}

// broadcastCount announces the current number of live connections
func (b *base) broadcastCount() {
	b.broadcast(protocol.ConnectionCount(b.room.Count()))
}

// fail reports a failed command to its sender. Unknown message types
// are dropped silently.
func (b *base) fail(connID string, err error) {
	var (
		rej     Rejection
		invalid *protocol.ValidationError
	)
	switch {
	case errors.Is(err, protocol.ErrUnknownType):
		b.log.Debug("ignoring unknown message type", "conn", connID)
	case errors.As(err, &rej):
		b.send(connID, protocol.Error(rej.Error()))
	case errors.As(err, &invalid):
		b.send(connID, protocol.Error(invalid.Message))
	case errors.Is(err, protocol.ErrInvalidFormat):
		b.send(connID, protocol.Error(protocol.ErrInvalidFormat.Error()))
	default:
		b.log.Error("command failed", "conn", connID, "error", err)
		b.send(connID, protocol.Error("Internal error"))
	}
}

// load restores key into dest. It reports false when nothing was stored.
func (b *base) load(ctx context.Context, key string, dest any) (bool, error) {
	if b.store == nil {
		return false, nil
	}
	data, err := b.store.Get(ctx, b.scope, key)
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// save persists v under key. Failures are logged: the in-memory session
// stays authoritative and the caller still broadcasts.
func (b *base) save(ctx context.Context, key string, v any) {
	if b.store == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		b.log.Error("failed to encode state", "key", key, "error", err)
		return
	}
	if err := b.store.Put(ctx, b.scope, key, data); err != nil {
		b.log.Error("failed to persist state", "key", key, "error", err)
	}
}

func (b *base) Close() {}
