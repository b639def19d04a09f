package protocol

import "partyrooms/internal/model"

// Kahoot client message types
const (
	TypeHostCreate       = "host_create"
	TypeCreateGame       = "create_game" // alias of host_create
	TypePlayerJoin       = "player_join"
	TypeHostStart        = "host_start"
	TypeHostNextQuestion = "host_next_question"
	TypePlayerAnswer     = "player_answer"
	TypeHostEndGame      = "host_end_game"
	TypeHostRestartGame  = "host_restart_game"
	TypeGetState         = "get_state" // shared with feedback
	TypeGetLeaderboard   = "get_leaderboard"
)

// Kahoot server message types
const (
	TypeGameCreated     = "game_created"
	TypePlayerJoined    = "player_joined"
	TypePlayerLeft      = "player_left"
	TypeGameStarted     = "game_started"
	TypeQuestionStarted = "question_started"
	TypePlayerAnswered  = "player_answered"
	TypeQuestionEnded   = "question_ended"
	TypeGameEnded       = "game_ended"
	TypeLeaderboard     = "leaderboard"
	TypeGameState       = "game_state"
)

// KahootCommand is the closed command set of a kahoot room
type KahootCommand interface {
	kahootCommand()
}

// QuestionInput is a question as authored by the host, before ids are assigned
type QuestionInput struct {
	Text          string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"len=4,dive,required"`
	CorrectAnswer int      `json:"correctAnswer" validate:"gte=0,lte=3"`
	TimeLimit     int      `json:"timeLimit" validate:"gt=0"`
	Points        int      `json:"points" validate:"gte=0"`
}

type CreateGame struct {
	Name      string          `json:"name" validate:"required"`
	Questions []QuestionInput `json:"questions" validate:"min=1,dive"`
}

type PlayerJoin struct {
	Name string `json:"name" validate:"required"`
}

type HostStart struct{}

type HostNextQuestion struct{}

type PlayerAnswer struct {
	QuestionID  string `json:"questionId" validate:"required"`
	AnswerIndex *int   `json:"answerIndex" validate:"required"` // out of range counts as wrong
}

type HostEndGame struct{}

type HostRestartGame struct{}

type GetGameState struct{}

type GetLeaderboard struct{}

func (CreateGame) kahootCommand()       {}
func (PlayerJoin) kahootCommand()       {}
func (HostStart) kahootCommand()        {}
func (HostNextQuestion) kahootCommand() {}
func (PlayerAnswer) kahootCommand()     {}
func (HostEndGame) kahootCommand()      {}
func (HostRestartGame) kahootCommand()  {}
func (GetGameState) kahootCommand()     {}
func (GetLeaderboard) kahootCommand()   {}

// DecodeKahoot parses a frame sent to a kahoot room
func DecodeKahoot(data []byte) (KahootCommand, error) {
	tag, err := TypeOf(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case TypeHostCreate, TypeCreateGame:
		return as[CreateGame, KahootCommand](tag, data)
	case TypePlayerJoin:
		return as[PlayerJoin, KahootCommand](tag, data)
	case TypeHostStart:
		return as[HostStart, KahootCommand](tag, data)
	case TypeHostNextQuestion:
		return as[HostNextQuestion, KahootCommand](tag, data)
	case TypePlayerAnswer:
		return as[PlayerAnswer, KahootCommand](tag, data)
	case TypeHostEndGame:
		return as[HostEndGame, KahootCommand](tag, data)
	case TypeHostRestartGame:
		return as[HostRestartGame, KahootCommand](tag, data)
	case TypeGetState:
		return as[GetGameState, KahootCommand](tag, data)
	case TypeGetLeaderboard:
		return as[GetLeaderboard, KahootCommand](tag, data)
	}
	return nil, ErrUnknownType
}

type GameCreatedEvent struct {
	Type   string `json:"type"`
	GameID string `json:"gameId"`
}

func GameCreated(gameID string) GameCreatedEvent {
	return GameCreatedEvent{Type: TypeGameCreated, GameID: gameID}
}

type PlayerJoinedEvent struct {
	Type   string              `json:"type"`
	Player model.PlayerSummary `json:"player"`
}

func PlayerJoined(p model.PlayerSummary) PlayerJoinedEvent {
	return PlayerJoinedEvent{Type: TypePlayerJoined, Player: p}
}

// PlayerEvent only names a player. It is used for player_answered and
// player_left, neither of which may leak anything else.
type PlayerEvent struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

func PlayerAnswered(playerID string) PlayerEvent {
	return PlayerEvent{Type: TypePlayerAnswered, PlayerID: playerID}
}

func PlayerLeft(playerID string) PlayerEvent {
	return PlayerEvent{Type: TypePlayerLeft, PlayerID: playerID}
}

type GameStartedEvent struct {
	Type string `json:"type"`
}

func GameStarted() GameStartedEvent {
	return GameStartedEvent{Type: TypeGameStarted}
}

type QuestionStartedEvent struct {
	Type          string               `json:"type"`
	Question      model.PublicQuestion `json:"question"`
	TimeRemaining int                  `json:"timeRemaining"`
}

func QuestionStarted(q model.Question, remaining int) QuestionStartedEvent {
	return QuestionStartedEvent{Type: TypeQuestionStarted, Question: q.Public(), TimeRemaining: remaining}
}

type QuestionEndedEvent struct {
	Type          string          `json:"type"`
	CorrectAnswer int             `json:"correctAnswer"`
	Rankings      []model.Ranking `json:"rankings"`
}

func QuestionEnded(correct int, rankings []model.Ranking) QuestionEndedEvent {
	return QuestionEndedEvent{Type: TypeQuestionEnded, CorrectAnswer: correct, Rankings: rankings}
}

type GameEndedEvent struct {
	Type          string               `json:"type"`
	FinalRankings []model.FinalRanking `json:"finalRankings"`
}

func GameEnded(rankings []model.FinalRanking) GameEndedEvent {
	return GameEndedEvent{Type: TypeGameEnded, FinalRankings: rankings}
}

type LeaderboardEvent struct {
	Type     string          `json:"type"`
	Rankings []model.Ranking `json:"rankings"`
}

func Leaderboard(rankings []model.Ranking) LeaderboardEvent {
	return LeaderboardEvent{Type: TypeLeaderboard, Rankings: rankings}
}

type GameStateEvent struct {
	Type    string                `json:"type"`
	State   model.GameState       `json:"state"`
	Players []model.PlayerSummary `json:"players"`
}

func GameState(g *model.Game) GameStateEvent {
	return GameStateEvent{Type: TypeGameState, State: g.State, Players: g.Summaries()}
}
