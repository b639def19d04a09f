package model

import (
	"math"
	"time"
)

// AnswerRecord is one entry of a player's answer history
type AnswerRecord struct {
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
	Points     int    `json:"points"`
}

// SpeedPoints returns the points for a correct answer given after elapsed.
// Any correct answer within the limit earns at least half of pointValue,
// scaling linearly up to the full value for an instant answer. Answers past
// the limit earn nothing.
func SpeedPoints(pointValue, timeLimitSeconds int, elapsed time.Duration) int {
	if timeLimitSeconds <= 0 {
		return 0
	}
	limit := float64(timeLimitSeconds)
	secs := elapsed.Seconds()
	if secs > limit {
		return 0
	}
	remaining := math.Max(0, limit-secs) / limit
	return int(math.Round(float64(pointValue) * (0.5 + 0.5*remaining)))
}
