package service

import (
	"context"
	"time"

	"partyrooms/internal/model"
)

//go:generate go run go.uber.org/mock/mockgen -destination=../mocks/mock_store.go -package=mocks partyrooms/internal/service StateStore

// StateStore is the durable per-room key/value store. Get returns
// (nil, nil) when the key is absent. scope identifies the room.
type StateStore interface {
	Get(ctx context.Context, scope, key string) ([]byte, error)
	Put(ctx context.Context, scope, key string, value []byte) error
}

// Room is the hosting substrate an engine runs in: a connection registry
// with point-to-point send, broadcast and a one-shot scheduler. Every
// Room method is called from the room's own goroutine, and scheduled
// callbacks run there too.
type Room interface {
	ID() string
	Kind() model.RoomKind
	// Count is the number of live connections, computed at call time
	Count() int
	ConnectionIDs() []string
	Send(connID string, msg []byte)
	Broadcast(msg []byte, except ...string)
	Schedule(d time.Duration, fn func(ctx context.Context)) Timer
}

// Timer is a cancellable one-shot scheduled callback
type Timer interface {
	// Stop cancels the callback and reports whether it was still pending
	Stop() bool
}

// Clock reads the current time
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Scope is the store scope of a room
func Scope(kind model.RoomKind, roomID string) string {
	return string(kind) + ":" + roomID
}

// Bounded limits every call to store to timeout
func Bounded(store StateStore, timeout time.Duration) StateStore {
	if timeout <= 0 {
		return store
	}
	return boundedStore{store: store, timeout: timeout}
}

type boundedStore struct {
	store   StateStore
	timeout time.Duration
}

func (b boundedStore) Get(ctx context.Context, scope, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.store.Get(ctx, scope, key)
}

func (b boundedStore) Put(ctx context.Context, scope, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.store.Put(ctx, scope, key, value)
}
