package model

import (
	"encoding/json"
	"fmt"
)

// FeedbackType selects which response variant a feedback session collects
type FeedbackType string

const (
	FeedbackEmoji FeedbackType = "emoji"
	FeedbackText  FeedbackType = "text"
	FeedbackScore FeedbackType = "score"
)

// Valid reports whether t is a known feedback type
func (t FeedbackType) Valid() bool {
	return t == FeedbackEmoji || t == FeedbackText || t == FeedbackScore
}

// EmojiOption is one configured emoji and its tally
type EmojiOption struct {
	Emoji string `json:"emoji"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DefaultEmojiOptions is used when an emoji session has no config
func DefaultEmojiOptions() []EmojiOption {
	return []EmojiOption{
		{Emoji: "😍", Label: "Love it"},
		{Emoji: "😊", Label: "Good"},
		{Emoji: "😐", Label: "Okay"},
		{Emoji: "😞", Label: "Not good"},
	}
}

// TextResponse is one free-text answer
type TextResponse struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	SubmittedAt int64  `json:"timestamp"` // unix millis
}

// ScoreRange is the inclusive range accepted by a score session
type ScoreRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultScoreRange is used when a score session has no config
var DefaultScoreRange = ScoreRange{Min: 1, Max: 10}

// Contains reports whether score is within the inclusive range
func (r ScoreRange) Contains(score int) bool {
	return score >= r.Min && score <= r.Max
}

// ScoreAggregate keeps derived statistics of submitted scores.
// Mean is recomputed from Sum and Count on every submission.
type ScoreAggregate struct {
	Sum          int         `json:"total"`
	Count        int         `json:"count"`
	Mean         float64     `json:"average"`
	CountByScore map[int]int `json:"distribution"`
}

// Add folds one score into the aggregate
func (a *ScoreAggregate) Add(score int) {
	if a.CountByScore == nil {
		a.CountByScore = make(map[int]int)
	}
	a.Sum += score
	a.Count++
	a.Mean = float64(a.Sum) / float64(a.Count)
	a.CountByScore[score]++
}

// FeedbackSession is the single authoritative record of a feedback room.
// Exactly one of EmojiOptions, TextResponses or ScoreData is set, per Type.
type FeedbackSession struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Type      FeedbackType `json:"type"`
	CreatedBy string       `json:"createdBy"`
	CreatedAt int64        `json:"createdAt"`
	IsActive  bool         `json:"isActive"`

	EmojiOptions  []EmojiOption   `json:"emojiOptions,omitempty"`
	TextResponses []TextResponse  `json:"textResponses,omitempty"`
	ScoreData     *ScoreAggregate `json:"scoreData,omitempty"`
	ScoreRange    *ScoreRange     `json:"scoreRange,omitempty"`
}

// EmojiOption returns the configured option for emoji, or nil
func (s *FeedbackSession) EmojiOption(emoji string) *EmojiOption {
	for i := range s.EmojiOptions {
		if s.EmojiOptions[i].Emoji == emoji {
			return &s.EmojiOptions[i]
		}
	}
	return nil
}

// Responder tracks whether a connection already answered the current session
type Responder struct {
	ID           string `json:"id"`
	HasResponded bool   `json:"hasResponded"`
}

// ResponderEntry persists as a [connectionId, responder] pair
type ResponderEntry struct {
	ConnectionID string
	Responder    Responder
}

func (e ResponderEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.ConnectionID, e.Responder})
}

func (e *ResponderEntry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("responder entry: expected pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.ConnectionID); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &e.Responder)
}
