package service

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"partyrooms/internal/model"
	"partyrooms/internal/protocol"
)

const (
	keyGame   = "game"
	keyHostID = "hostId"

	// DefaultQuizStartDelay separates game_started from the first question
	DefaultQuizStartDelay = 2 * time.Second
)

// GameService runs a timed multiple-choice quiz. The creator of the game is
// its host; every other connection may join as a player while the game is
// waiting.
type GameService struct {
	base
	startDelay time.Duration

	game   *model.Game
	hostID string

	// openQuestion is the index of the question accepting answers, or -1
	openQuestion int
	answered     map[string]struct{}

	startTimer    Timer
	questionTimer Timer
	// round invalidates callbacks of timers armed before a start, end or restart
	round int
}

// NewGameService creates a quiz engine for room
func NewGameService(room Room, deps Deps) *GameService {
	delay := deps.QuizStartDelay
	if delay <= 0 {
		delay = DefaultQuizStartDelay
	}
	return &GameService{
		base:         newBase(room, deps),
		startDelay:   delay,
		openQuestion: -1,
		answered:     make(map[string]struct{}),
	}
}

// Start restores the game and its host. Question timers do not survive a
// restart: a question that was open stays open until the host advances.
func (s *GameService) Start(ctx context.Context) error {
	var game model.Game
	found, err := s.load(ctx, keyGame, &game)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	s.game = &game
	if _, err := s.load(ctx, keyHostID, &s.hostID); err != nil {
		return err
	}
	if game.State == model.GameQuestion && game.QuestionStartTime != nil {
		s.openQuestion = game.CurrentQuestionIndex
		s.answered = lo.SliceToMap(
			lo.Filter(game.Players, func(p *model.Player, _ int) bool { return answeredQuestion(p, game.CurrentQuestion()) }),
			func(p *model.Player) (string, struct{}) { return p.ID, struct{}{} },
		)
	}
	return nil
}

func answeredQuestion(p *model.Player, q *model.Question) bool {
	if q == nil {
		return false
	}
	return lo.ContainsBy(p.Answers, func(a model.AnswerRecord) bool { return a.QuestionID == q.ID })
}

func (s *GameService) OnConnect(ctx context.Context, connID string) {
	if s.game != nil {
		s.send(connID, protocol.GameState(s.game))
	}
	s.broadcastCount()
}

// OnClose drops the player of a departing connection
func (s *GameService) OnClose(ctx context.Context, connID string) {
	if s.game != nil && s.game.RemovePlayer(connID) {
		delete(s.answered, connID)
		s.save(ctx, keyGame, s.game)
		s.broadcast(protocol.PlayerLeft(connID))
	}
	s.broadcastCount()
}

func (s *GameService) OnMessage(ctx context.Context, connID string, data []byte) {
	cmd, err := protocol.DecodeKahoot(data)
	if err == nil {
		err = s.handle(ctx, connID, cmd)
	}
	if err != nil {
		s.fail(connID, err)
	}
}

func (s *GameService) handle(ctx context.Context, connID string, cmd protocol.KahootCommand) error {
	switch c := cmd.(type) {
	case protocol.CreateGame:
		return s.create(ctx, connID, c)
	case protocol.PlayerJoin:
		return s.join(ctx, connID, c.Name)
	case protocol.HostStart:
		return s.start(ctx, connID)
	case protocol.HostNextQuestion:
		return s.next(ctx, connID)
	case protocol.PlayerAnswer:
		return s.answer(ctx, connID, c.QuestionID, *c.AnswerIndex)
	case protocol.HostEndGame:
		return s.end(ctx, connID)
	case protocol.HostRestartGame:
		return s.restart(ctx, connID)
	case protocol.GetGameState:
		if s.game != nil {
			s.send(connID, protocol.GameState(s.game))
		}
		return nil
	case protocol.GetLeaderboard:
		if s.game != nil {
			s.send(connID, protocol.Leaderboard(s.game.Rankings()))
		}
		return nil
	}
	return fmt.Errorf("unhandled kahoot command %T", cmd)
}

func (s *GameService) create(ctx context.Context, connID string, c protocol.CreateGame) error {
	if s.game != nil {
		return ErrGameExists
	}

	s.hostID = connID
	s.game = &model.Game{
		ID:   s.room.ID(),
		Name: c.Name,
		Questions: lo.Map(c.Questions, func(q protocol.QuestionInput, i int) model.Question {
			return model.Question{
				ID:                 fmt.Sprintf("q-%d", i),
				Text:               q.Text,
				Options:            q.Options,
				CorrectOptionIndex: q.CorrectAnswer,
				TimeLimitSeconds:   q.TimeLimit,
				PointValue:         q.Points,
			}
		}),
		CurrentQuestionIndex: -1,
		State:                model.GameWaiting,
		Players:              []*model.Player{},
		CreatedBy:            connID,
		CreatedAt:            s.now(),
	}

	s.save(ctx, keyGame, s.game)
	s.save(ctx, keyHostID, s.hostID)
	s.send(connID, protocol.GameCreated(s.game.ID))
	s.broadcast(protocol.GameState(s.game))
	s.log.Info("game created", "name", c.Name, "questions", len(c.Questions), "host", connID)
	return nil
}

func (s *GameService) join(ctx context.Context, connID, name string) error {
	if s.game == nil {
		return ErrNoGame
	}
	if s.game.State != model.GameWaiting {
		return ErrGameStarted
	}

	player := &model.Player{ID: connID, Name: name, Answers: []model.AnswerRecord{}}
	s.game.AddPlayer(player)

	s.save(ctx, keyGame, s.game)
	s.broadcast(protocol.PlayerJoined(player.Summary()))
	s.send(connID, protocol.GameState(s.game))
	return nil
}

func (s *GameService) start(ctx context.Context, connID string) error {
	if s.game == nil {
		return ErrNoGame
	}
	if connID != s.hostID {
		return ErrNotHostStart
	}
	if s.game.State != model.GameWaiting {
		return ErrGameStarted
	}

	s.stopTimers()
	s.round++
	s.game.State = model.GameQuestion
	s.game.CurrentQuestionIndex = 0
	s.game.QuestionStartTime = nil
	s.openQuestion = -1

	s.save(ctx, keyGame, s.game)
	s.broadcast(protocol.GameStarted())
	s.log.Info("game started", "players", len(s.game.Players))

	round := s.round
	s.startTimer = s.room.Schedule(s.startDelay, func(ctx context.Context) {
		if s.round != round || !s.pending(0) {
			return
		}
		s.startTimer = nil
		s.open(ctx, 0)
	})
	return nil
}

// pending reports whether question i is due to open but not yet open
func (s *GameService) pending(i int) bool {
	return s.game != nil &&
		s.game.State == model.GameQuestion &&
		s.game.CurrentQuestionIndex == i &&
		s.openQuestion == -1
}

// open starts accepting answers for question i and arms its expiry
func (s *GameService) open(ctx context.Context, i int) {
	q := s.game.Questions[i]
	started := s.now()

	s.game.State = model.GameQuestion
	s.game.CurrentQuestionIndex = i
	s.game.QuestionStartTime = &started
	s.openQuestion = i
	s.answered = make(map[string]struct{})

	s.save(ctx, keyGame, s.game)
	s.broadcast(protocol.QuestionStarted(q, q.TimeLimitSeconds))

	if s.questionTimer != nil {
		s.questionTimer.Stop()
	}
	round := s.round
	s.questionTimer = s.room.Schedule(time.Duration(q.TimeLimitSeconds)*time.Second, func(ctx context.Context) {
		if s.round != round {
			return
		}
		s.closeQuestion(ctx, i)
	})
}

// closeQuestion ends question i. It is a no-op unless i is the question
// currently open, so the timer and host_next_question cannot both end it.
func (s *GameService) closeQuestion(ctx context.Context, i int) bool {
	if s.game == nil || s.game.State != model.GameQuestion || s.openQuestion != i {
		return false
	}
	if s.questionTimer != nil {
		s.questionTimer.Stop()
		s.questionTimer = nil
	}

	s.game.State = model.GameResults
	s.openQuestion = -1

	s.save(ctx, keyGame, s.game)
	s.broadcast(protocol.QuestionEnded(s.game.Questions[i].CorrectOptionIndex, s.game.Rankings()))
	return true
}

func (s *GameService) next(ctx context.Context, connID string) error {
	if s.game == nil {
		return ErrNoGame
	}
	if connID != s.hostID {
		return ErrNotHostAdvance
	}
	switch s.game.State {
	case model.GameWaiting:
		return ErrGameNotStarted
	case model.GameEnded:
		return ErrGameOver
	}

	i := s.game.CurrentQuestionIndex
	if s.pending(i) {
		// skip the rest of the grace period
		if s.startTimer != nil {
			s.startTimer.Stop()
			s.startTimer = nil
		}
		s.open(ctx, i)
		return nil
	}

	s.closeQuestion(ctx, i)
	if i+1 >= len(s.game.Questions) {
		s.finish(ctx)
		return nil
	}
	s.open(ctx, i+1)
	return nil
}

func (s *GameService) answer(ctx context.Context, connID, questionID string, index int) error {
	if s.game == nil {
		return ErrNoGame
	}
	player := s.game.Player(connID)
	if player == nil {
		return ErrPlayerNotFound
	}
	if _, done := s.answered[connID]; done {
		return ErrAlreadyAnswered
	}
	q := s.game.CurrentQuestion()
	if q == nil || q.ID != questionID {
		return ErrInvalidQuestion
	}
	if s.openQuestion != s.game.CurrentQuestionIndex {
		return ErrQuestionClosed
	}

	correct := index == q.CorrectOptionIndex
	points := 0
	if correct && s.game.QuestionStartTime != nil {
		elapsed := time.Duration(s.now()-*s.game.QuestionStartTime) * time.Millisecond
		points = model.SpeedPoints(q.PointValue, q.TimeLimitSeconds, elapsed)
	}
	s.answered[connID] = struct{}{}
	player.Record(model.AnswerRecord{QuestionID: q.ID, Correct: correct, Points: points})

	s.save(ctx, keyGame, s.game)
	s.broadcast(protocol.PlayerAnswered(connID), connID)
	return nil
}

func (s *GameService) end(ctx context.Context, connID string) error {
	if s.game == nil {
		return ErrNoGame
	}
	if connID != s.hostID {
		return ErrNotHostEnd
	}
	if s.game.State == model.GameEnded {
		return ErrGameAlreadyEnded
	}
	s.finish(ctx)
	return nil
}

func (s *GameService) finish(ctx context.Context) {
	s.stopTimers()
	s.round++
	s.game.State = model.GameEnded
	s.openQuestion = -1

	s.save(ctx, keyGame, s.game)
	s.broadcast(protocol.GameEnded(s.game.FinalRankings()))
	s.log.Info("game ended", "players", len(s.game.Players))
}

func (s *GameService) restart(ctx context.Context, connID string) error {
	if s.game == nil {
		return ErrNoGame
	}
	if connID != s.hostID {
		return ErrNotHostRestart
	}

	s.stopTimers()
	s.round++
	s.game.Reset()
	s.openQuestion = -1
	s.answered = make(map[string]struct{})

	s.save(ctx, keyGame, s.game)
	s.broadcast(protocol.GameState(s.game))
	return nil
}

func (s *GameService) stopTimers() {
	if s.startTimer != nil {
		s.startTimer.Stop()
		s.startTimer = nil
	}
	if s.questionTimer != nil {
		s.questionTimer.Stop()
		s.questionTimer = nil
	}
}

// Snapshot returns the observer view of the current game, or nil
func (s *GameService) Snapshot() any {
	if s.game == nil {
		return nil
	}
	return s.game.View()
}

// Close cancels the pending timers of an evicted room
func (s *GameService) Close() {
	s.stopTimers()
	s.round++
}
