package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"partyrooms/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// DefaultMaxMessageSize bounds an inbound frame; quiz definitions are the largest
	DefaultMaxMessageSize = 64 * 1024
	// DefaultSendBuffer is the number of outbound frames queued per connection
	DefaultSendBuffer = 256
)

// connIDParam is the query parameter PartySocket clients use to name their connection
const connIDParam = "_pk"

// Options tunes the websocket handler
type Options struct {
	MaxMessageSize int64
	SendBuffer     int
	// AllowedOrigins lists the accepted Origin headers; "*" accepts any
	AllowedOrigins []string
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	opts     Options
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, opts Options, log *slog.Logger) *Handler {
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = DefaultMaxMessageSize
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	h := &Handler{
		hub:  hub,
		opts: opts,
		log:  log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	return lo.Contains(h.opts.AllowedOrigins, "*") || lo.Contains(h.opts.AllowedOrigins, origin)
}

// PartyWS handles GET /parties/{kind}/{room}
func (h *Handler) PartyWS(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := model.RoomKind(vars["kind"])
	roomID := vars["room"]

	if !kind.Valid() {
		http.Error(w, "unknown party", http.StatusNotFound)
		return
	}

	id := r.URL.Query().Get(connIDParam)
	if id == "" {
		id = uuid.NewString()
	}
	conn := NewConnection(id, h.opts.SendBuffer)

	room, err := h.hub.Join(kind, roomID, conn)
	if err != nil {
		h.log.Error("failed to join room", "kind", kind, "room", roomID, "error", err)
		http.Error(w, "failed to join room", http.StatusInternalServerError)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "kind", kind, "room", roomID, "error", err)
		h.hub.Leave(room, conn)
		return
	}

	room.Connect(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, room, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, room *Room, conn *Connection) {
	defer func() {
		h.hub.Leave(room, conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(h.opts.MaxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		mt, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read error", "conn", conn.ID, "error", err)
			}
			break
		}
		if mt != websocket.TextMessage {
			continue
		}
		room.Receive(conn, data)
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := wsConn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
