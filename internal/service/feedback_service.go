package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"partyrooms/internal/model"
	"partyrooms/internal/protocol"
)

const (
	keySession    = "session"
	keyResponders = "responders"
)

// FeedbackService collects one response per connection for a single
// emoji, text or score session
type FeedbackService struct {
	base
	session    *model.FeedbackSession
	responders map[string]*model.Responder
	hostID     string
}

// NewFeedbackService creates a feedback engine for room
func NewFeedbackService(room Room, deps Deps) *FeedbackService {
	return &FeedbackService{
		base:       newBase(room, deps),
		responders: make(map[string]*model.Responder),
	}
}

// Start restores the session, its responders and the host
func (s *FeedbackService) Start(ctx context.Context) error {
	var session model.FeedbackSession
	found, err := s.load(ctx, keySession, &session)
	if err != nil {
		return err
	}
	if found {
		s.session = &session
	}

	var entries []model.ResponderEntry
	if _, err := s.load(ctx, keyResponders, &entries); err != nil {
		return err
	}
	for _, e := range entries {
		r := e.Responder
		s.responders[e.ConnectionID] = &r
	}

	if _, err := s.load(ctx, keyHostID, &s.hostID); err != nil {
		return err
	}
	return nil
}

func (s *FeedbackService) OnConnect(ctx context.Context, connID string) {
	if s.session != nil {
		s.send(connID, protocol.FeedbackUpdated(s.session))
	}
	s.responder(connID)
	s.broadcastCount()
}

func (s *FeedbackService) OnClose(ctx context.Context, connID string) {
	s.broadcastCount()
}

func (s *FeedbackService) OnMessage(ctx context.Context, connID string, data []byte) {
	cmd, err := protocol.DecodeFeedback(data)
	if err == nil {
		err = s.handle(ctx, connID, cmd)
	}
	if err != nil {
		s.fail(connID, err)
	}
}

func (s *FeedbackService) handle(ctx context.Context, connID string, cmd protocol.FeedbackCommand) error {
	switch c := cmd.(type) {
	case protocol.CreateFeedback:
		return s.create(ctx, connID, c)
	case protocol.SubmitEmoji:
		return s.submitEmoji(ctx, connID, c.Emoji)
	case protocol.SubmitText:
		return s.submitText(ctx, connID, c.Text)
	case protocol.SubmitScore:
		return s.submitScore(ctx, connID, *c.Score)
	case protocol.CloseFeedback:
		return s.close(ctx, connID)
	case protocol.GetFeedbackState:
		if s.session != nil {
			s.send(connID, protocol.FeedbackUpdated(s.session))
		}
		return nil
	}
	return fmt.Errorf("unhandled feedback command %T", cmd)
}

func (s *FeedbackService) create(ctx context.Context, connID string, c protocol.CreateFeedback) error {
	if s.session != nil && s.session.IsActive {
		return ErrFeedbackActive
	}

	session := &model.FeedbackSession{
		ID:        uuid.NewString(),
		Title:     c.Title,
		Type:      c.FeedbackType,
		CreatedBy: connID,
		CreatedAt: s.now(),
		IsActive:  true,
	}
	switch cfg := c.Settings.(type) {
	case protocol.EmojiConfig:
		session.EmojiOptions = model.DefaultEmojiOptions()
		if len(cfg.Emojis) > 0 {
			session.EmojiOptions = lo.Map(cfg.Emojis, func(e protocol.EmojiChoice, _ int) model.EmojiOption {
				return model.EmojiOption{Emoji: e.Emoji, Label: e.Label}
			})
		}
	case protocol.TextConfig:
		session.TextResponses = []model.TextResponse{}
	case protocol.ScoreConfig:
		r := model.DefaultScoreRange
		if cfg.Range != nil {
			r = *cfg.Range
		}
		session.ScoreRange = &r
		session.ScoreData = &model.ScoreAggregate{CountByScore: map[int]int{}}
	default:
		return fmt.Errorf("unresolved config for feedback type %q", c.FeedbackType)
	}

	s.session = session
	s.hostID = connID
	s.responders = lo.SliceToMap(s.room.ConnectionIDs(), func(id string) (string, *model.Responder) {
		return id, &model.Responder{ID: id}
	})

	s.save(ctx, keySession, s.session)
	s.save(ctx, keyResponders, s.responderEntries())
	s.save(ctx, keyHostID, s.hostID)
	s.broadcast(protocol.FeedbackCreated(s.session))
	s.log.Info("feedback session created", "session", session.ID, "type", session.Type, "host", connID)
	return nil
}

// admit checks that connID may submit a response of type t now
func (s *FeedbackService) admit(connID string, t model.FeedbackType) (*model.Responder, error) {
	if s.session == nil || s.session.Type != t {
		return nil, rejectf("No active %s feedback session", t)
	}
	if !s.session.IsActive {
		return nil, ErrFeedbackClosed
	}
	r := s.responder(connID)
	if r.HasResponded {
		return nil, ErrAlreadySubmitted
	}
	return r, nil
}

func (s *FeedbackService) submitEmoji(ctx context.Context, connID, emoji string) error {
	r, err := s.admit(connID, model.FeedbackEmoji)
	if err != nil {
		return err
	}
	option := s.session.EmojiOption(emoji)
	if option == nil {
		return ErrInvalidEmoji
	}
	option.Count++
	s.accepted(ctx, connID, r)
	return nil
}

func (s *FeedbackService) submitText(ctx context.Context, connID, text string) error {
	r, err := s.admit(connID, model.FeedbackText)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	s.session.TextResponses = append(s.session.TextResponses, model.TextResponse{
		ID:          uuid.NewString(),
		Text:        text,
		SubmittedAt: s.now(),
	})
	s.accepted(ctx, connID, r)
	return nil
}

func (s *FeedbackService) submitScore(ctx context.Context, connID string, score int) error {
	r, err := s.admit(connID, model.FeedbackScore)
	if err != nil {
		return err
	}
	bounds := model.DefaultScoreRange
	if s.session.ScoreRange != nil {
		bounds = *s.session.ScoreRange
	}
	if !bounds.Contains(score) {
		return rejectf("Score must be between %d and %d", bounds.Min, bounds.Max)
	}
	if s.session.ScoreData == nil {
		s.session.ScoreData = &model.ScoreAggregate{}
	}
	s.session.ScoreData.Add(score)
	s.accepted(ctx, connID, r)
	return nil
}

// accepted marks the responder, persists and fans out the new aggregate
func (s *FeedbackService) accepted(ctx context.Context, connID string, r *model.Responder) {
	r.HasResponded = true
	s.save(ctx, keySession, s.session)
	s.save(ctx, keyResponders, s.responderEntries())
	s.send(connID, protocol.ResponseSubmitted())
	s.broadcast(protocol.FeedbackUpdated(s.session))
}

func (s *FeedbackService) close(ctx context.Context, connID string) error {
	if s.session == nil {
		return ErrNoFeedback
	}
	if connID != s.hostID {
		return ErrNotFeedbackHost
	}
	if !s.session.IsActive {
		return ErrFeedbackAlreadyClosed
	}

	s.session.IsActive = false
	s.save(ctx, keySession, s.session)
	s.broadcast(protocol.FeedbackClosed(s.session))
	s.log.Info("feedback session closed", "session", s.session.ID, "responses", s.responseCount())
	return nil
}

// responder returns the entry of connID, creating it if needed
func (s *FeedbackService) responder(connID string) *model.Responder {
	r, ok := s.responders[connID]
	if !ok {
		r = &model.Responder{ID: connID}
		s.responders[connID] = r
	}
	return r
}

func (s *FeedbackService) responderEntries() []model.ResponderEntry {
	entries := lo.MapToSlice(s.responders, func(id string, r *model.Responder) model.ResponderEntry {
		return model.ResponderEntry{ConnectionID: id, Responder: *r}
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].ConnectionID < entries[j].ConnectionID })
	return entries
}

func (s *FeedbackService) responseCount() int {
	return lo.CountBy(lo.Values(s.responders), func(r *model.Responder) bool { return r.HasResponded })
}

// Snapshot returns the current session, or nil
func (s *FeedbackService) Snapshot() any {
	if s.session == nil {
		return nil
	}
	return s.session
}
