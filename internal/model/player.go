package model

import (
	"encoding/json"
	"fmt"
)

// Player represents a participant of a quiz game, keyed by connection id
type Player struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Score   int            `json:"score"`
	Answers []AnswerRecord `json:"answers"`
}

// PlayerSummary is a player without answer history
type PlayerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Summary drops the answer history
func (p *Player) Summary() PlayerSummary {
	return PlayerSummary{ID: p.ID, Name: p.Name, Score: p.Score}
}

// Record appends an answer and adds its points to the cumulative score
func (p *Player) Record(a AnswerRecord) {
	p.Answers = append(p.Answers, a)
	p.Score += a.Points
}

// Reset zeroes score and history, keeping identity
func (p *Player) Reset() {
	p.Score = 0
	p.Answers = []AnswerRecord{}
}

// PlayerEntry persists as a [connectionId, player] pair
type PlayerEntry struct {
	ConnectionID string
	Player       *Player
}

func (e PlayerEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.ConnectionID, e.Player})
}

func (e *PlayerEntry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("player entry: expected pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.ConnectionID); err != nil {
		return err
	}
	e.Player = &Player{}
	return json.Unmarshal(pair[1], e.Player)
}
