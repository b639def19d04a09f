package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"partyrooms/internal/model"
)

// ErrUnknownKind is returned for a kind no engine serves
var ErrUnknownKind = errors.New("unknown room kind")

// Directory looks up live rooms
type Directory interface {
	// Inspect returns the snapshot and connection count of a live room.
	// live is false when no such room is running.
	Inspect(ctx context.Context, kind model.RoomKind, roomID string) (snapshot any, connections int, live bool, err error)
}

// RoomService answers out-of-band queries about rooms
type RoomService struct {
	rooms Directory
	deps  Deps
}

// NewRoomService creates a new room service
func NewRoomService(rooms Directory, deps Deps) *RoomService {
	return &RoomService{rooms: rooms, deps: deps}
}

// GetRoom returns the state of a room. Rooms that are not live are read
// back from the store the same way a room restores on first connection.
func (s *RoomService) GetRoom(ctx context.Context, kind model.RoomKind, roomID string) (*model.RoomInfo, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	snapshot, conns, live, err := s.rooms.Inspect(ctx, kind, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect room: %w", err)
	}
	if !live {
		snapshot, err = s.restore(ctx, kind, roomID)
		if err != nil {
			return nil, err
		}
	}
	return &model.RoomInfo{
		Kind:        kind,
		Room:        roomID,
		Live:        live,
		Connections: conns,
		State:       snapshot,
	}, nil
}

func (s *RoomService) restore(ctx context.Context, kind model.RoomKind, roomID string) (any, error) {
	engine, err := NewEngine(kind, idleRoom{kind: kind, id: roomID}, s.deps)
	if err != nil {
		return nil, err
	}
	defer engine.Close()
	if err := engine.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to restore room: %w", err)
	}
	return engine.Snapshot(), nil
}

// NewRoomCode picks a 6-char room id that is neither live nor persisted
func (s *RoomService) NewRoomCode(ctx context.Context, kind model.RoomKind) (string, error) {
	if !kind.Valid() {
		return "", ErrUnknownKind
	}
	for attempts := 0; attempts < 10; attempts++ {
		code, err := generateRoomCode()
		if err != nil {
			return "", err
		}
		info, err := s.GetRoom(ctx, kind, code)
		if err != nil {
			return "", err
		}
		if !info.Live && info.State == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique room code")
}

// generateRoomCode creates a 6-char alphanumeric code
func generateRoomCode() (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLen = 6

	b := make([]byte, codeLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	code := make([]byte, codeLen)
	for i := range code {
		code[i] = chars[int(b[i])%len(chars)]
	}
	return string(code), nil
}

// idleRoom hosts an engine with no connections, for read-only restores
type idleRoom struct {
	kind model.RoomKind
	id   string
}

func (r idleRoom) ID() string { return r.id }
func (r idleRoom) Kind() model.RoomKind { return r.kind }
func (r idleRoom) Count() int { return 0 }
func (r idleRoom) ConnectionIDs() []string { return nil }
func (r idleRoom) Send(string, []byte) {}
func (r idleRoom) Broadcast([]byte, ...string) {}
func (r idleRoom) Schedule(time.Duration, func(context.Context)) Timer { return stoppedTimer{} }

type stoppedTimer struct{}

func (stoppedTimer) Stop() bool { return false }
