package protocol

import "partyrooms/internal/model"

// TypeEmojiPop tags both the client reaction and its relayed broadcast
const TypeEmojiPop = "emoji_pop"

// FeelingsCommand is the closed command set of a feelings room
type FeelingsCommand interface {
	feelingsCommand()
}

// EmojiPopRequest is a reaction sent by a client. X and Y are optional
// viewport percentages.
type EmojiPopRequest struct {
	Emoji string   `json:"emoji" validate:"required"`
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
}

func (EmojiPopRequest) feelingsCommand() {}

// DecodeFeelings parses a frame sent to a feelings room
func DecodeFeelings(data []byte) (FeelingsCommand, error) {
	tag, err := TypeOf(data)
	if err != nil {
		return nil, err
	}
	if tag == TypeEmojiPop {
		return as[EmojiPopRequest, FeelingsCommand](tag, data)
	}
	return nil, ErrUnknownType
}

// EmojiPopEvent is the relayed reaction
type EmojiPopEvent struct {
	Type string `json:"type"`
	model.EmojiPop
}

func EmojiPopped(pop model.EmojiPop) EmojiPopEvent {
	return EmojiPopEvent{Type: TypeEmojiPop, EmojiPop: pop}
}
