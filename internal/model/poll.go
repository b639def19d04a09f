package model

// PollOption is one selectable answer of a poll
type PollOption struct {
	ID    string `json:"id"` // "option-0", "option-1", ...
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// Poll is the single authoritative poll record of a polls room
type Poll struct {
	ID        string       `json:"id"`
	Question  string       `json:"question"`
	Options   []PollOption `json:"options"`
	IsActive  bool         `json:"isActive"`
	CreatedBy string       `json:"createdBy"`
	CreatedAt int64        `json:"createdAt"` // unix millis
}

// Option returns the option with the given id, or nil
func (p *Poll) Option(id string) *PollOption {
	for i := range p.Options {
		if p.Options[i].ID == id {
			return &p.Options[i]
		}
	}
	return nil
}

// TotalVotes sums the vote counts of every option
func (p *Poll) TotalVotes() int {
	total := 0
	for _, o := range p.Options {
		total += o.Votes
	}
	return total
}
