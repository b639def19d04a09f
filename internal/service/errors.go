package service

import "fmt"

// Rejection is a user-facing reason a command was refused. It reaches the
// sender as an error event and never changes state.
type Rejection string

func (r Rejection) Error() string { return string(r) }

func rejectf(format string, args ...any) Rejection {
	return Rejection(fmt.Sprintf(format, args...))
}

// Poll
const (
	ErrPollActive       Rejection = "A poll is already active"
	ErrNoPoll           Rejection = "No active poll"
	ErrPollEnded        Rejection = "Poll has ended"
	ErrPollAlreadyEnded Rejection = "Poll has already ended"
	ErrAlreadyVoted     Rejection = "You have already voted"
	ErrInvalidOption    Rejection = "Invalid option"
	ErrNotPollCreator   Rejection = "Only the poll creator can end the poll"
)

// Kahoot
const (
	ErrGameExists       Rejection = "A game already exists in this room"
	ErrNoGame           Rejection = "No game exists"
	ErrGameStarted      Rejection = "Game has already started"
	ErrGameNotStarted   Rejection = "Game has not started"
	ErrGameOver         Rejection = "Game has ended"
	ErrGameAlreadyEnded Rejection = "Game has already ended"
	ErrNotHostStart     Rejection = "Only the host can start the game"
	ErrNotHostAdvance   Rejection = "Only the host can advance questions"
	ErrNotHostEnd       Rejection = "Only the host can end the game"
	ErrNotHostRestart   Rejection = "Only the host can restart the game"
	ErrPlayerNotFound   Rejection = "Player not found"
	ErrAlreadyAnswered  Rejection = "You have already answered this question"
	ErrInvalidQuestion  Rejection = "Invalid question"
	ErrQuestionClosed   Rejection = "Question is closed"
)

// Feedback
const (
	ErrFeedbackActive        Rejection = "A feedback session is already active"
	ErrNoFeedback            Rejection = "No active feedback session"
	ErrFeedbackClosed        Rejection = "Feedback session is closed"
	ErrFeedbackAlreadyClosed Rejection = "Feedback session is already closed"
	ErrAlreadySubmitted      Rejection = "You have already submitted feedback"
	ErrInvalidEmoji          Rejection = "Invalid emoji option"
	ErrEmptyText             Rejection = "Feedback text cannot be empty"
	ErrNotFeedbackHost       Rejection = "Only the host can close the feedback session"
)
