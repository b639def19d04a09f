package model

// Question is a multiple choice quiz question. The JSON names are the ones
// the kahoot clients send in host_create.
type Question struct {
	ID                 string   `json:"id"` // "q-0", "q-1", ...
	Text               string   `json:"question"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctAnswer"`
	TimeLimitSeconds   int      `json:"timeLimit"`
	PointValue         int      `json:"points"`
}

// PublicQuestion is what players see while a question is open
type PublicQuestion struct {
	ID               string   `json:"id"`
	Text             string   `json:"question"`
	Options          []string `json:"options"`
	TimeLimitSeconds int      `json:"timeLimit"`
	PointValue       int      `json:"points"`
}

// Public strips the correct answer from the question
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:               q.ID,
		Text:             q.Text,
		Options:          q.Options,
		TimeLimitSeconds: q.TimeLimitSeconds,
		PointValue:       q.PointValue,
	}
}
