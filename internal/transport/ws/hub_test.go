package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"partyrooms/internal/service"
	"partyrooms/internal/storage"
)

type testServer struct {
	*httptest.Server
	hub   *Hub
	store *storage.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMemoryStore()
	hub := NewHub(service.Deps{Store: store, Logger: logger, QuizStartDelay: 50 * time.Millisecond})
	handler := NewHandler(hub, Options{}, logger)

	r := mux.NewRouter()
	r.HandleFunc("/parties/{kind}/{room}", handler.PartyWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, hub: hub, store: store}
}

func (s *testServer) dial(t *testing.T, path, id string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.URL, "http") + path
	if id != "" {
		url += "?_pk=" + id
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func (s *testServer) join(t *testing.T, path, id string) *websocket.Conn {
	t.Helper()
	conn, _, err := s.dial(t, path, id)
	require.NoError(t, err)
	return conn
}

// next reads frames until one of type typ arrives
func next(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", typ)
		var ev map[string]any
		require.NoError(t, json.Unmarshal(data, &ev))
		if ev["type"] == typ {
			return ev
		}
	}
}

func write(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func TestHub_PollRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	host := srv.join(t, "/parties/polls/r1", "host")
	next(t, host, "connection_count")
	voter := srv.join(t, "/parties/polls/r1", "voter")
	require.Equal(t, float64(2), next(t, host, "connection_count")["count"])

	write(t, host, `{"type":"create_poll","question":"Favorite color?","options":["Red","Blue"]}`)
	created := next(t, voter, "poll_created")
	require.Equal(t, "host", created["poll"].(map[string]any)["createdBy"])

	write(t, voter, `{"type":"vote","optionId":"option-1"}`)
	next(t, host, "poll_updated")
	write(t, voter, `{"type":"vote","optionId":"option-1"}`)
	require.Equal(t, "You have already voted", next(t, voter, "error")["message"])
}

func TestHub_ReconnectReplacesConnection(t *testing.T) {
	srv := newTestServer(t)
	stale := srv.join(t, "/parties/polls/r1", "a")
	write(t, stale, `{"type":"create_poll","question":"Q?","options":["x","y"]}`)
	next(t, stale, "poll_created")

	// the same id reconnects before the first socket is reaped
	fresh := srv.join(t, "/parties/polls/r1", "a")
	poll := next(t, fresh, "poll_updated")["poll"].(map[string]any)
	require.Equal(t, "Q?", poll["question"])

	require.NoError(t, stale.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, _, err := stale.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			require.ErrorAs(t, err, &closeErr)
			break
		}
	}

	// the new socket keeps the creator's identity
	write(t, fresh, `{"type":"end_poll"}`)
	next(t, fresh, "poll_ended")

	require.Eventually(t, func() bool {
		_, conns, live, err := srv.hub.Inspect(t.Context(), "polls", "r1")
		return err == nil && live && conns == 1
	}, 2*time.Second, 10*time.Millisecond)

	// the id is only scoped to its room
	other := srv.join(t, "/parties/polls/r2", "a")
	next(t, other, "connection_count")
}

func TestHub_UnknownKind(t *testing.T) {
	srv := newTestServer(t)
	_, resp, err := srv.dial(t, "/parties/chat/r1", "")
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHub_BinaryFramesIgnored(t *testing.T) {
	srv := newTestServer(t)
	a := srv.join(t, "/parties/feelings/r1", "a")
	next(t, a, "connection_count")

	require.NoError(t, a.WriteMessage(websocket.BinaryMessage, []byte(`{"type":"emoji_pop","emoji":"🎉"}`)))
	write(t, a, `{"type":"emoji_pop","emoji":"👏"}`)

	require.Equal(t, "👏", next(t, a, "emoji_pop")["emoji"])
}

func TestHub_EvictAndRestore(t *testing.T) {
	srv := newTestServer(t)
	host := srv.join(t, "/parties/feedback/r1", "host")
	write(t, host, `{"type":"create_feedback","title":"Rate","feedbackType":"score"}`)
	next(t, host, "feedback_created")
	host.Close()

	require.Eventually(t, func() bool {
		_, _, live, err := srv.hub.Inspect(t.Context(), "feedback", "r1")
		return err == nil && !live
	}, 2*time.Second, 10*time.Millisecond)

	raw, err := srv.store.Get(t.Context(), service.Scope("feedback", "r1"), "session")
	require.NoError(t, err)
	require.Contains(t, string(raw), `"title":"Rate"`)

	again := srv.join(t, "/parties/feedback/r1", "late")
	session := next(t, again, "feedback_updated")["session"].(map[string]any)
	require.Equal(t, "Rate", session["title"])

	snap, conns, live, err := srv.hub.Inspect(t.Context(), "feedback", "r1")
	require.NoError(t, err)
	require.True(t, live)
	require.Equal(t, 1, conns)
	require.Contains(t, string(snap.(json.RawMessage)), `"title":"Rate"`)
}

func TestHub_QuizTimersRunOnRoom(t *testing.T) {
	srv := newTestServer(t)
	host := srv.join(t, "/parties/kahoot/q1", "host")
	player := srv.join(t, "/parties/kahoot/q1", "p1")

	write(t, host, `{"type":"host_create","name":"Quick","questions":[{"question":"?","options":["a","b","c","d"],"correctAnswer":1,"timeLimit":1,"points":100}]}`)
	next(t, host, "game_created")
	write(t, player, `{"type":"player_join","name":"Ada"}`)
	next(t, host, "player_joined")
	write(t, host, `{"type":"host_start"}`)

	next(t, player, "question_started")
	write(t, player, `{"type":"player_answer","questionId":"q-0","answerIndex":1}`)
	ended := next(t, player, "question_ended")
	rankings := ended["rankings"].([]any)
	require.Greater(t, rankings[0].(map[string]any)["score"].(float64), float64(0))
}
