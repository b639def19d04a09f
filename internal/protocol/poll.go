package protocol

import "partyrooms/internal/model"

// Poll client message types
const (
	TypeCreatePoll = "create_poll"
	TypeVote       = "vote"
	TypeEndPoll    = "end_poll"
	TypeGetResults = "get_results"
)

// Poll server message types
const (
	TypePollCreated = "poll_created"
	TypePollUpdated = "poll_updated"
	TypePollEnded   = "poll_ended"
)

// PollCommand is one of CreatePoll, Vote, EndPoll, GetResults
type PollCommand interface {
	pollCommand()
}

type CreatePoll struct {
	Question string   `json:"question" validate:"required"`
	Options  []string `json:"options" validate:"min=2,dive,required"`
}

type Vote struct {
	OptionID string `json:"optionId" validate:"required"`
}

type EndPoll struct{}

type GetResults struct{}

func (CreatePoll) pollCommand() {}
func (Vote) pollCommand()       {}
func (EndPoll) pollCommand()    {}
func (GetResults) pollCommand() {}

// DecodePoll parses a frame sent to a polls room
func DecodePoll(data []byte) (PollCommand, error) {
	tag, err := TypeOf(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case TypeCreatePoll:
		return as[CreatePoll, PollCommand](tag, data)
	case TypeVote:
		return as[Vote, PollCommand](tag, data)
	case TypeEndPoll:
		return as[EndPoll, PollCommand](tag, data)
	case TypeGetResults:
		return as[GetResults, PollCommand](tag, data)
	}
	return nil, ErrUnknownType
}

// PollEvent carries the full poll snapshot
type PollEvent struct {
	Type string      `json:"type"`
	Poll *model.Poll `json:"poll"`
}

func PollCreated(p *model.Poll) PollEvent { return PollEvent{Type: TypePollCreated, Poll: p} }
func PollUpdated(p *model.Poll) PollEvent { return PollEvent{Type: TypePollUpdated, Poll: p} }
func PollEnded(p *model.Poll) PollEvent   { return PollEvent{Type: TypePollEnded, Poll: p} }
