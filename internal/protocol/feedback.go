package protocol

import (
	"bytes"
	"encoding/json"

	"partyrooms/internal/model"
)

// Feedback client message types
const (
	TypeCreateFeedback = "create_feedback"
	TypeSubmitEmoji    = "submit_emoji"
	TypeSubmitText     = "submit_text"
	TypeSubmitScore    = "submit_score"
	TypeCloseFeedback  = "close_feedback"
)

// Feedback server message types
const (
	TypeFeedbackCreated   = "feedback_created"
	TypeFeedbackUpdated   = "feedback_updated"
	TypeFeedbackClosed    = "feedback_closed"
	TypeResponseSubmitted = "response_submitted"
)

// FeedbackCommand is the closed command set of a feedback room
type FeedbackCommand interface {
	feedbackCommand()
}

type CreateFeedback struct {
	Title        string             `json:"title" validate:"required"`
	FeedbackType model.FeedbackType `json:"feedbackType" validate:"required,oneof=emoji text score"`
	Config       json.RawMessage    `json:"config,omitempty"`

	// Settings is Config resolved against FeedbackType
	Settings FeedbackConfig `json:"-"`
}

type SubmitEmoji struct {
	Emoji string `json:"emoji" validate:"required"`
}

type SubmitText struct {
	Text string `json:"text" validate:"required"`
}

type SubmitScore struct {
	Score *int `json:"score" validate:"required"`
}

type CloseFeedback struct{}

type GetFeedbackState struct{}

func (CreateFeedback) feedbackCommand()   {}
func (SubmitEmoji) feedbackCommand()      {}
func (SubmitText) feedbackCommand()       {}
func (SubmitScore) feedbackCommand()      {}
func (CloseFeedback) feedbackCommand()    {}
func (GetFeedbackState) feedbackCommand() {}

// FeedbackConfig is one of EmojiConfig, TextConfig, ScoreConfig
type FeedbackConfig interface {
	feedbackConfig()
}

// EmojiConfig overrides the default emoji set. Nil Emojis means defaults.
type EmojiConfig struct {
	Emojis []EmojiChoice `json:"emojis" validate:"dive"`
}

type EmojiChoice struct {
	Emoji string `json:"emoji" validate:"required"`
	Label string `json:"label"`
	Count int    `json:"count"` // accepted from clients, always reset to zero
}

// TextConfig takes no settings
type TextConfig struct{}

// ScoreConfig overrides the default 1-10 range. Nil Range means defaults.
type ScoreConfig struct {
	Range *model.ScoreRange `json:"range"`
}

func (EmojiConfig) feedbackConfig() {}
func (TextConfig) feedbackConfig()  {}
func (ScoreConfig) feedbackConfig() {}

// DecodeFeedback parses a frame sent to a feedback room
func DecodeFeedback(data []byte) (FeedbackCommand, error) {
	tag, err := TypeOf(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case TypeCreateFeedback:
		return decodeCreateFeedback(data)
	case TypeSubmitEmoji:
		return as[SubmitEmoji, FeedbackCommand](tag, data)
	case TypeSubmitText:
		return as[SubmitText, FeedbackCommand](tag, data)
	case TypeSubmitScore:
		return as[SubmitScore, FeedbackCommand](tag, data)
	case TypeCloseFeedback:
		return as[CloseFeedback, FeedbackCommand](tag, data)
	case TypeGetState:
		return as[GetFeedbackState, FeedbackCommand](tag, data)
	}
	return nil, ErrUnknownType
}

func decodeCreateFeedback(data []byte) (FeedbackCommand, error) {
	var cmd CreateFeedback
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, ErrInvalidFormat
	}
	if err := check(TypeCreateFeedback, &cmd); err != nil {
		return nil, err
	}
	settings, err := resolveConfig(cmd.FeedbackType, cmd.Config)
	if err != nil {
		return nil, err
	}
	cmd.Settings = settings
	return cmd, nil
}

// resolveConfig validates the untyped config payload against the session
// type. Unknown fields are rejected rather than ignored.
func resolveConfig(t model.FeedbackType, raw json.RawMessage) (FeedbackConfig, error) {
	var target any
	switch t {
	case model.FeedbackEmoji:
		target = &EmojiConfig{}
	case model.FeedbackText:
		target = &TextConfig{}
	case model.FeedbackScore:
		target = &ScoreConfig{}
	default:
		return nil, Invalid("Invalid feedback type")
	}

	if len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(target); err != nil {
			return nil, Invalid("Invalid feedback config")
		}
		if err := check("feedback config", target); err != nil {
			return nil, err
		}
	}

	switch cfg := target.(type) {
	case *EmojiConfig:
		if cfg.Emojis != nil && len(cfg.Emojis) == 0 {
			return nil, Invalid("Invalid feedback config: emojis must not be empty")
		}
		return *cfg, nil
	case *ScoreConfig:
		if cfg.Range != nil && cfg.Range.Min >= cfg.Range.Max {
			return nil, Invalid("Invalid feedback config: range min must be less than max")
		}
		return *cfg, nil
	case *TextConfig:
		return *cfg, nil
	}
	return nil, Invalid("Invalid feedback config")
}

// FeedbackEvent carries the full session snapshot
type FeedbackEvent struct {
	Type    string                 `json:"type"`
	Session *model.FeedbackSession `json:"session"`
}

func FeedbackCreated(s *model.FeedbackSession) FeedbackEvent {
	return FeedbackEvent{Type: TypeFeedbackCreated, Session: s}
}

func FeedbackUpdated(s *model.FeedbackSession) FeedbackEvent {
	return FeedbackEvent{Type: TypeFeedbackUpdated, Session: s}
}

func FeedbackClosed(s *model.FeedbackSession) FeedbackEvent {
	return FeedbackEvent{Type: TypeFeedbackClosed, Session: s}
}

type ResponseSubmittedEvent struct {
	Type string `json:"type"`
}

func ResponseSubmitted() ResponseSubmittedEvent {
	return ResponseSubmittedEvent{Type: TypeResponseSubmitted}
}
