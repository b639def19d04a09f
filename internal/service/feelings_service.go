package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"partyrooms/internal/model"
	"partyrooms/internal/protocol"
)

// FeelingsService relays emoji reactions to everyone in the room. It keeps
// no state.
type FeelingsService struct {
	base
}

// NewFeelingsService creates an emoji relay for room
func NewFeelingsService(room Room, deps Deps) *FeelingsService {
	return &FeelingsService{base: newBase(room, deps)}
}

func (s *FeelingsService) Start(ctx context.Context) error { return nil }

func (s *FeelingsService) OnConnect(ctx context.Context, connID string) {
	s.broadcastCount()
}

func (s *FeelingsService) OnClose(ctx context.Context, connID string) {
	s.broadcastCount()
}

func (s *FeelingsService) OnMessage(ctx context.Context, connID string, data []byte) {
	cmd, err := protocol.DecodeFeelings(data)
	if err == nil {
		err = s.handle(connID, cmd)
	}
	if err != nil {
		s.fail(connID, err)
	}
}

func (s *FeelingsService) handle(connID string, cmd protocol.FeelingsCommand) error {
	switch c := cmd.(type) {
	case protocol.EmojiPopRequest:
		s.broadcast(protocol.EmojiPopped(model.EmojiPop{
			Emoji:        c.Emoji,
			OriginatorID: connID,
			Timestamp:    s.now(),
			X:            coordinate(c.X),
			Y:            coordinate(c.Y),
		}))
		return nil
	}
	return fmt.Errorf("unhandled feelings command %T", cmd)
}

// coordinate places a missing position anywhere on screen
func coordinate(v *float64) float64 {
	if v != nil {
		return *v
	}
	return rand.Float64() * 100
}

func (s *FeelingsService) Snapshot() any { return nil }
