package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"partyrooms/internal/model"
)

func requireInvalid(t *testing.T, err error, want string) {
	t.Helper()
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, want, invalid.Message)
}

func TestDecodePoll(t *testing.T) {
	cmd, err := DecodePoll([]byte(`{"type":"create_poll","question":"Favorite color?","options":["Red","Blue"]}`))
	require.NoError(t, err)
	require.Equal(t, CreatePoll{Question: "Favorite color?", Options: []string{"Red", "Blue"}}, cmd)

	cmd, err = DecodePoll([]byte(`{"type":"vote","optionId":"option-1"}`))
	require.NoError(t, err)
	require.Equal(t, Vote{OptionID: "option-1"}, cmd)

	_, err = DecodePoll([]byte(`{"type":"create_poll","question":"Q","options":["a",""]}`))
	requireInvalid(t, err, "Invalid create_poll: options[1] is required")

	_, err = DecodePoll([]byte(`{"type":"vote"}`))
	requireInvalid(t, err, "Invalid vote: optionId is required")
}

func TestDecode_FrameErrors(t *testing.T) {
	for _, frame := range []string{``, `null`, `[]`, `{}`, `"vote"`, `{"type":`, `{"type":7}`, `{"type":""}`} {
		_, err := DecodePoll([]byte(frame))
		require.ErrorIs(t, err, ErrInvalidFormat, frame)
	}

	_, err := DecodePoll([]byte(`{"type":"emoji_pop","emoji":"x"}`))
	require.ErrorIs(t, err, ErrUnknownType)
	_, err = DecodeKahoot([]byte(`{}`))
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestDecodeKahoot(t *testing.T) {
	frame := `{"type":"host_create","name":"Trivia","questions":[{"question":"2+2?","options":["1","2","3","4"],"correctAnswer":3,"timeLimit":20,"points":1000}]}`
	cmd, err := DecodeKahoot([]byte(frame))
	require.NoError(t, err)
	create := cmd.(CreateGame)
	require.Equal(t, "Trivia", create.Name)
	require.Equal(t, QuestionInput{Text: "2+2?", Options: []string{"1", "2", "3", "4"}, CorrectAnswer: 3, TimeLimit: 20, Points: 1000}, create.Questions[0])

	alias, err := DecodeKahoot([]byte(`{"type":"create_game","name":"Trivia","questions":[{"question":"2+2?","options":["1","2","3","4"],"correctAnswer":3,"timeLimit":20,"points":1000}]}`))
	require.NoError(t, err)
	require.Equal(t, create, alias)

	cases := []struct{ frame, want string }{
		{`{"type":"host_create","name":"T","questions":[]}`, "Invalid host_create: questions needs at least 1 items"},
		{`{"type":"host_create","name":"","questions":[{"question":"q","options":["a","b","c","d"],"correctAnswer":0,"timeLimit":5}]}`, "Invalid host_create: name is required"},
		{`{"type":"host_create","name":"T","questions":[{"question":"q","options":["a","b","c","d"],"correctAnswer":4,"timeLimit":5}]}`, "Invalid host_create: correctAnswer must be at most 3"},
		{`{"type":"host_create","name":"T","questions":[{"question":"q","options":["a","b","c","d"],"correctAnswer":0,"timeLimit":0}]}`, "Invalid host_create: timeLimit must be greater than 0"},
		{`{"type":"player_join","name":""}`, "Invalid player_join: name is required"},
		{`{"type":"player_answer","questionId":"q-0"}`, "Invalid player_answer: answerIndex is required"},
	}
	for _, tc := range cases {
		_, err := DecodeKahoot([]byte(tc.frame))
		requireInvalid(t, err, tc.want)
	}

	cmd, err = DecodeKahoot([]byte(`{"type":"player_answer","questionId":"q-0","answerIndex":0}`))
	require.NoError(t, err)
	require.Equal(t, 0, *cmd.(PlayerAnswer).AnswerIndex)

	cmd, err = DecodeKahoot([]byte(`{"type":"player_answer","questionId":"q-0","answerIndex":7}`))
	require.NoError(t, err)
	require.Equal(t, 7, *cmd.(PlayerAnswer).AnswerIndex)
}

func TestDecodeFeedback(t *testing.T) {
	cmd, err := DecodeFeedback([]byte(`{"type":"create_feedback","title":"Rate","feedbackType":"score","config":{"range":{"min":0,"max":5}}}`))
	require.NoError(t, err)
	create := cmd.(CreateFeedback)
	require.Equal(t, ScoreConfig{Range: &model.ScoreRange{Min: 0, Max: 5}}, create.Settings)

	cmd, err = DecodeFeedback([]byte(`{"type":"create_feedback","title":"Mood","feedbackType":"emoji","config":null}`))
	require.NoError(t, err)
	require.Equal(t, EmojiConfig{}, cmd.(CreateFeedback).Settings)

	cmd, err = DecodeFeedback([]byte(`{"type":"create_feedback","title":"Ideas","feedbackType":"text","config":{}}`))
	require.NoError(t, err)
	require.Equal(t, TextConfig{}, cmd.(CreateFeedback).Settings)

	cases := []struct{ frame, want string }{
		{`{"type":"create_feedback","title":"T","feedbackType":"text","config":{"range":{"min":1,"max":2}}}`, "Invalid feedback config"},
		{`{"type":"create_feedback","title":"T","feedbackType":"emoji","config":{"emojis":[]}}`, "Invalid feedback config: emojis must not be empty"},
		{`{"type":"create_feedback","title":"T","feedbackType":"emoji","config":{"emojis":[{"label":"x"}]}}`, "Invalid feedback config: emoji is required"},
		{`{"type":"create_feedback","title":"T","feedbackType":"score","config":{"range":{"min":3,"max":3}}}`, "Invalid feedback config: range min must be less than max"},
		{`{"type":"create_feedback","title":"T","feedbackType":"poll"}`, "Invalid create_feedback: feedbackType must be one of [emoji text score]"},
		{`{"type":"submit_score"}`, "Invalid submit_score: score is required"},
	}
	for _, tc := range cases {
		_, err := DecodeFeedback([]byte(tc.frame))
		requireInvalid(t, err, tc.want)
	}

	cmd, err = DecodeFeedback([]byte(`{"type":"get_state"}`))
	require.NoError(t, err)
	require.Equal(t, GetFeedbackState{}, cmd)
}

func TestEncodeEvents(t *testing.T) {
	q := model.Question{ID: "q-0", Text: "2+2?", Options: []string{"1", "2", "3", "4"}, CorrectOptionIndex: 3, TimeLimitSeconds: 20, PointValue: 1000}
	data, err := Encode(QuestionStarted(q, 20))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"question_started","question":{"id":"q-0","question":"2+2?","options":["1","2","3","4"],"timeLimit":20,"points":1000},"timeRemaining":20}`, string(data))

	data, err = Encode(EmojiPopped(model.EmojiPop{Emoji: "🎉", OriginatorID: "c1", Timestamp: 42, X: 1, Y: 2}))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"emoji_pop","emoji":"🎉","userId":"c1","timestamp":42,"x":1,"y":2}`, string(data))

	data, err = Encode(Error("Invalid option"))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"error","message":"Invalid option"}`, string(data))

	var tagged map[string]any
	data, err = Encode(ConnectionCount(3))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &tagged))
	require.Equal(t, map[string]any{"type": "connection_count", "count": float64(3)}, tagged)
}
