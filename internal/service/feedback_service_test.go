package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"partyrooms/internal/model"
)

func sessionOf(h *harness) *model.FeedbackSession {
	return h.engine.Snapshot().(*model.FeedbackSession)
}

func TestFeedbackService_ScoreAggregate(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, model.KindFeedback)
	h.connect("host", "a", "b", "c")

	h.send("host", `{"type":"create_feedback","title":"Rate the talk","feedbackType":"score","config":{"range":{"min":1,"max":5}}}`)
	created := h.last("a", "feedback_created")["session"].(map[string]any)
	req.Equal("score", created["type"])
	req.Equal(map[string]any{"min": float64(1), "max": float64(5)}, created["scoreRange"])

	h.send("a", `{"type":"submit_score","score":5}`)
	h.send("b", `{"type":"submit_score","score":3}`)
	h.send("c", `{"type":"submit_score","score":4}`)

	data := sessionOf(h).ScoreData
	req.Equal(3, data.Count)
	req.Equal(12, data.Sum)
	req.InDelta(4.0, data.Mean, 1e-9)
	req.Equal(map[int]int{5: 1, 3: 1, 4: 1}, data.CountByScore)

	req.Len(h.events("a", "response_submitted"), 1)
	req.Empty(h.events("host", "response_submitted"))
	wire := h.last("host", "feedback_updated")["session"].(map[string]any)["scoreData"].(map[string]any)
	req.Equal(float64(12), wire["total"])
	req.Equal(float64(4), wire["average"])
	req.Equal(map[string]any{"3": float64(1), "4": float64(1), "5": float64(1)}, wire["distribution"])
}

func TestFeedbackService_ScoreOutOfRange(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, model.KindFeedback)
	h.connect("host", "a")
	h.send("host", `{"type":"create_feedback","title":"Rate","feedbackType":"score","config":{"range":{"min":1,"max":5}}}`)

	h.send("a", `{"type":"submit_score","score":10}`)
	req.Equal([]string{"Score must be between 1 and 5"}, h.errors("a"))
	req.Zero(sessionOf(h).ScoreData.Count)

	// a rejected score does not use up the response
	h.send("a", `{"type":"submit_score","score":2}`)
	req.Len(h.errors("a"), 1)
	req.Equal(1, sessionOf(h).ScoreData.Count)
}

func TestFeedbackService_DefaultScoreRange(t *testing.T) {
	h := newHarness(t, model.KindFeedback)
	h.connect("host", "a")
	h.send("host", `{"type":"create_feedback","title":"Rate","feedbackType":"score"}`)
	h.send("a", `{"type":"submit_score","score":0}`)
	require.Equal(t, []string{"Score must be between 1 and 10"}, h.errors("a"))
	require.Equal(t, model.DefaultScoreRange, *sessionOf(h).ScoreRange)
}

func TestFeedbackService_EmojiSingleResponse(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, model.KindFeedback)
	h.connect("host", "a", "b")
	h.send("host", `{"type":"create_feedback","title":"Mood","feedbackType":"emoji","config":{}}`)
	req.Equal(model.DefaultEmojiOptions(), sessionOf(h).EmojiOptions)

	h.send("a", `{"type":"submit_emoji","emoji":"😊"}`)
	h.send("a", `{"type":"submit_emoji","emoji":"😍"}`)
	h.send("b", `{"type":"submit_emoji","emoji":"🦄"}`)

	req.Equal([]string{"You have already submitted feedback"}, h.errors("a"))
	req.Equal([]string{"Invalid emoji option"}, h.errors("b"))
	counts := map[string]int{}
	for _, o := range sessionOf(h).EmojiOptions {
		counts[o.Emoji] = o.Count
	}
	req.Equal(map[string]int{"😍": 0, "😊": 1, "😐": 0, "😞": 0}, counts)
}

func TestFeedbackService_CustomEmojis(t *testing.T) {
	h := newHarness(t, model.KindFeedback)
	h.connect("host")
	h.send("host", `{"type":"create_feedback","title":"Mood","feedbackType":"emoji","config":{"emojis":[{"emoji":"🔥","label":"Fire","count":9},{"emoji":"🧊","label":"Ice"}]}}`)
	require.Equal(t, []model.EmojiOption{
		{Emoji: "🔥", Label: "Fire"},
		{Emoji: "🧊", Label: "Ice"},
	}, sessionOf(h).EmojiOptions)
}

func TestFeedbackService_Text(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, model.KindFeedback)
	h.connect("host", "a", "b")
	h.send("host", `{"type":"create_feedback","title":"Questions?","feedbackType":"text"}`)

	h.send("a", `{"type":"submit_text","text":"   "}`)
	h.send("a", `{"type":"submit_text","text":"  More demos please  "}`)
	h.send("b", `{"type":"submit_score","score":3}`)

	req.Equal([]string{"Feedback text cannot be empty"}, h.errors("a"))
	req.Equal([]string{"No active score feedback session"}, h.errors("b"))
	responses := sessionOf(h).TextResponses
	req.Len(responses, 1)
	req.Equal("More demos please", responses[0].Text)
	req.NotEmpty(responses[0].ID)
}

func TestFeedbackService_HostClose(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, model.KindFeedback)
	h.connect("host", "a")

	h.send("host", `{"type":"close_feedback"}`)
	h.send("host", `{"type":"create_feedback","title":"Mood","feedbackType":"emoji"}`)
	h.send("a", `{"type":"close_feedback"}`)
	req.True(sessionOf(h).IsActive)

	h.send("host", `{"type":"close_feedback"}`)
	h.send("a", `{"type":"submit_emoji","emoji":"😊"}`)
	h.send("host", `{"type":"close_feedback"}`)

	req.Equal([]string{"No active feedback session", "Feedback session is already closed"}, h.errors("host"))
	req.Equal([]string{"Only the host can close the feedback session", "Feedback session is closed"}, h.errors("a"))
	req.Len(h.events("a", "feedback_closed"), 1)
	req.False(sessionOf(h).IsActive)
}

func TestFeedbackService_NewSessionResetsResponders(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, model.KindFeedback)
	h.connect("host", "a")
	h.send("host", `{"type":"create_feedback","title":"One","feedbackType":"emoji"}`)
	h.send("host", `{"type":"create_feedback","title":"Two","feedbackType":"emoji"}`)
	req.Equal([]string{"A feedback session is already active"}, h.errors("host"))

	h.send("a", `{"type":"submit_emoji","emoji":"😊"}`)
	h.send("host", `{"type":"close_feedback"}`)
	h.send("a", `{"type":"create_feedback","title":"Two","feedbackType":"score"}`)
	h.send("a", `{"type":"submit_score","score":7}`)

	req.Empty(h.errors("a"))
	req.Equal("Two", sessionOf(h).Title)
	req.Equal(1, sessionOf(h).ScoreData.Count)

	// the creator of the new session is its host
	h.send("host", `{"type":"close_feedback"}`)
	req.Equal("Only the host can close the feedback session", h.errors("host")[1])
}

func TestFeedbackService_InvalidConfig(t *testing.T) {
	h := newHarness(t, model.KindFeedback)
	h.connect("host")
	h.send("host", `{"type":"create_feedback","title":"Rate","feedbackType":"score","config":{"range":{"min":5,"max":1}}}`)
	h.send("host", `{"type":"create_feedback","title":"Rate","feedbackType":"score","config":{"scale":3}}`)
	h.send("host", `{"type":"create_feedback","title":"Rate","feedbackType":"stars"}`)
	require.Len(t, h.errors("host"), 3)
	require.Nil(t, h.engine.Snapshot())
}

func TestFeedbackService_RestoreKeepsResponders(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, model.KindFeedback)
	h.connect("host", "a")
	h.send("host", `{"type":"create_feedback","title":"Rate","feedbackType":"score"}`)
	h.send("a", `{"type":"submit_score","score":8}`)

	r := h.reopen()
	r.connect("a", "host")
	req.Equal("Rate", r.last("a", "feedback_updated")["session"].(map[string]any)["title"])

	r.send("a", `{"type":"submit_score","score":9}`)
	req.Equal([]string{"You have already submitted feedback"}, r.errors("a"))

	r.send("host", `{"type":"close_feedback"}`)
	req.Empty(r.errors("host"))
}
