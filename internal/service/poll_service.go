package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"partyrooms/internal/model"
	"partyrooms/internal/protocol"
)

const (
	keyPoll   = "poll"
	keyVoters = "voters"
)

// PollService runs a single live poll per room with one vote per connection
type PollService struct {
	base
	poll   *model.Poll
	voters map[string]struct{}
}

// NewPollService creates a poll engine for room
func NewPollService(room Room, deps Deps) *PollService {
	return &PollService{
		base:   newBase(room, deps),
		voters: make(map[string]struct{}),
	}
}

// Start restores the poll and the voter set
func (s *PollService) Start(ctx context.Context) error {
	var poll model.Poll
	found, err := s.load(ctx, keyPoll, &poll)
	if err != nil {
		return err
	}
	if found {
		s.poll = &poll
	}

	var voters []string
	if _, err := s.load(ctx, keyVoters, &voters); err != nil {
		return err
	}
	s.voters = lo.SliceToMap(voters, func(id string) (string, struct{}) { return id, struct{}{} })
	return nil
}

func (s *PollService) OnConnect(ctx context.Context, connID string) {
	if s.poll != nil {
		s.send(connID, protocol.PollUpdated(s.poll))
	}
	s.broadcastCount()
}

func (s *PollService) OnClose(ctx context.Context, connID string) {
	s.broadcastCount()
}

func (s *PollService) OnMessage(ctx context.Context, connID string, data []byte) {
	cmd, err := protocol.DecodePoll(data)
	if err == nil {
		err = s.handle(ctx, connID, cmd)
	}
	if err != nil {
		s.fail(connID, err)
	}
}

func (s *PollService) handle(ctx context.Context, connID string, cmd protocol.PollCommand) error {
	switch c := cmd.(type) {
	case protocol.CreatePoll:
		return s.create(ctx, connID, c)
	case protocol.Vote:
		return s.vote(ctx, connID, c.OptionID)
	case protocol.EndPoll:
		return s.end(ctx, connID)
	case protocol.GetResults:
		if s.poll != nil {
			s.send(connID, protocol.PollUpdated(s.poll))
		}
		return nil
	}
	return fmt.Errorf("unhandled poll command %T", cmd)
}

func (s *PollService) create(ctx context.Context, connID string, c protocol.CreatePoll) error {
	if s.poll != nil && s.poll.IsActive {
		return ErrPollActive
	}

	s.poll = &model.Poll{
		ID:       uuid.NewString(),
		Question: c.Question,
		Options: lo.Map(c.Options, func(text string, i int) model.PollOption {
			return model.PollOption{ID: fmt.Sprintf("option-%d", i), Text: text}
		}),
		IsActive:  true,
		CreatedBy: connID,
		CreatedAt: s.now(),
	}
	s.voters = make(map[string]struct{})

	s.save(ctx, keyPoll, s.poll)
	s.save(ctx, keyVoters, s.voterIDs())
	s.broadcast(protocol.PollCreated(s.poll))
	s.log.Info("poll created", "poll", s.poll.ID, "conn", connID)
	return nil
}

func (s *PollService) vote(ctx context.Context, connID, optionID string) error {
	if s.poll == nil {
		return ErrNoPoll
	}
	if !s.poll.IsActive {
		return ErrPollEnded
	}
	if _, voted := s.voters[connID]; voted {
		return ErrAlreadyVoted
	}
	option := s.poll.Option(optionID)
	if option == nil {
		return ErrInvalidOption
	}

	option.Votes++
	s.voters[connID] = struct{}{}

	s.save(ctx, keyPoll, s.poll)
	s.save(ctx, keyVoters, s.voterIDs())
	s.broadcast(protocol.PollUpdated(s.poll))
	return nil
}

func (s *PollService) end(ctx context.Context, connID string) error {
	if s.poll == nil {
		return ErrNoPoll
	}
	if s.poll.CreatedBy != connID {
		return ErrNotPollCreator
	}
	if !s.poll.IsActive {
		return ErrPollAlreadyEnded
	}

	s.poll.IsActive = false
	s.save(ctx, keyPoll, s.poll)
	s.broadcast(protocol.PollEnded(s.poll))
	s.log.Info("poll ended", "poll", s.poll.ID, "votes", s.poll.TotalVotes())
	return nil
}

func (s *PollService) voterIDs() []string {
	ids := lo.Keys(s.voters)
	sort.Strings(ids)
	return ids
}

// Snapshot returns the current poll, or nil
func (s *PollService) Snapshot() any {
	if s.poll == nil {
		return nil
	}
	return s.poll
}
