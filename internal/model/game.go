package model

import (
	"encoding/json"
	"sort"

	"github.com/samber/lo"
)

// GameState is the phase of a quiz game
type GameState string

const (
	GameWaiting  GameState = "waiting"
	GameQuestion GameState = "question"
	GameResults  GameState = "results"
	// GameLeaderboard is a client-side view; the server never enters it
	GameLeaderboard GameState = "leaderboard"
	GameEnded       GameState = "ended"
)

// Game is the quiz held by a kahoot room. A room holds exactly one game
// for its lifetime; restart resets progress in place.
type Game struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Questions            []Question `json:"questions"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex"` // -1 before start
	State                GameState  `json:"state"`
	Players              []*Player  `json:"-"` // join order, used as ranking tie-break
	CreatedBy            string     `json:"createdBy"`
	CreatedAt            int64      `json:"createdAt"`
	QuestionStartTime    *int64     `json:"questionStartTime,omitempty"` // unix millis
}

// Ranking is one row of a score-descending ranking
type Ranking struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// FinalRanking is a ranking row with the player's answer history
type FinalRanking struct {
	Ranking
	Answers []AnswerRecord `json:"answers"`
}

type gameAlias Game

type storedGame struct {
	*gameAlias
	Players []PlayerEntry `json:"players"`
}

// MarshalJSON stores players as an ordered list of [connectionId, player] pairs
func (g Game) MarshalJSON() ([]byte, error) {
	entries := lo.Map(g.Players, func(p *Player, _ int) PlayerEntry {
		return PlayerEntry{ConnectionID: p.ID, Player: p}
	})
	return json.Marshal(storedGame{gameAlias: (*gameAlias)(&g), Players: entries})
}

func (g *Game) UnmarshalJSON(data []byte) error {
	stored := storedGame{gameAlias: (*gameAlias)(g)}
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}
	g.Players = lo.Map(stored.Players, func(e PlayerEntry, _ int) *Player {
		if e.Player.ID == "" {
			e.Player.ID = e.ConnectionID
		}
		return e.Player
	})
	return nil
}

// Player returns the player registered for a connection, or nil
func (g *Game) Player(connID string) *Player {
	p, _ := lo.Find(g.Players, func(p *Player) bool { return p.ID == connID })
	return p
}

// AddPlayer registers p, replacing an existing player of the same connection
func (g *Game) AddPlayer(p *Player) {
	for i, existing := range g.Players {
		if existing.ID == p.ID {
			g.Players[i] = p
			return
		}
	}
	g.Players = append(g.Players, p)
}

// RemovePlayer drops the player of a connection and reports whether it existed
func (g *Game) RemovePlayer(connID string) bool {
	n := len(g.Players)
	g.Players = lo.Reject(g.Players, func(p *Player, _ int) bool { return p.ID == connID })
	return len(g.Players) != n
}

// CurrentQuestion returns the question at CurrentQuestionIndex, or nil
func (g *Game) CurrentQuestion() *Question {
	if g.CurrentQuestionIndex < 0 || g.CurrentQuestionIndex >= len(g.Questions) {
		return nil
	}
	return &g.Questions[g.CurrentQuestionIndex]
}

// Summaries lists players without answer history, in join order
func (g *Game) Summaries() []PlayerSummary {
	return lo.Map(g.Players, func(p *Player, _ int) PlayerSummary { return p.Summary() })
}

// ranked returns players by score descending; join order breaks ties
func (g *Game) ranked() []*Player {
	players := make([]*Player, len(g.Players))
	copy(players, g.Players)
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Score > players[j].Score
	})
	return players
}

// Rankings is the score-descending ranking
func (g *Game) Rankings() []Ranking {
	return lo.Map(g.ranked(), func(p *Player, _ int) Ranking {
		return Ranking{PlayerID: p.ID, Name: p.Name, Score: p.Score}
	})
}

// FinalRankings is the ranking including each player's answer history
func (g *Game) FinalRankings() []FinalRanking {
	return lo.Map(g.ranked(), func(p *Player, _ int) FinalRanking {
		return FinalRanking{
			Ranking: Ranking{PlayerID: p.ID, Name: p.Name, Score: p.Score},
			Answers: p.Answers,
		}
	})
}

// Reset puts the game back into the lobby, keeping questions and roster
func (g *Game) Reset() {
	for _, p := range g.Players {
		p.Reset()
	}
	g.State = GameWaiting
	g.CurrentQuestionIndex = -1
	g.QuestionStartTime = nil
}

// GameView is the game as any observer may see it. Correct answers and
// answer histories are withheld until the game has ended.
type GameView struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	State                GameState       `json:"state"`
	CurrentQuestionIndex int             `json:"currentQuestionIndex"`
	QuestionCount        int             `json:"questionCount"`
	CurrentQuestion      *PublicQuestion `json:"currentQuestion,omitempty"`
	Players              []PlayerSummary `json:"players"`
	CreatedAt            int64           `json:"createdAt"`
	Questions            []Question      `json:"questions,omitempty"`
	FinalRankings        []FinalRanking  `json:"finalRankings,omitempty"`
}

// View returns the observer view of the game
func (g *Game) View() GameView {
	view := GameView{
		ID:                   g.ID,
		Name:                 g.Name,
		State:                g.State,
		CurrentQuestionIndex: g.CurrentQuestionIndex,
		QuestionCount:        len(g.Questions),
		Players:              g.Summaries(),
		CreatedAt:            g.CreatedAt,
	}
	if g.State == GameEnded {
		view.Questions = g.Questions
		view.FinalRankings = g.FinalRankings()
		return view
	}
	if q := g.CurrentQuestion(); q != nil && g.State != GameWaiting {
		public := q.Public()
		view.CurrentQuestion = &public
	}
	return view
}
