package rest

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"partyrooms/internal/service"
	"partyrooms/internal/transport/rest/handler"
	"partyrooms/internal/transport/rest/middleware"
	"partyrooms/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	RoomService    *service.RoomService
	WSHandler      *ws.Handler
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter creates the router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(c.RoomService, c.Logger)

	// CORS middleware (apply first)
	r.Use(middleware.CORS(c.AllowedOrigins))
	r.Use(middleware.Logging(c.Logger))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// WebSocket rooms, one path per party kind
	r.HandleFunc("/parties/{kind}/{room}", c.WSHandler.PartyWS).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/rooms/{kind}", roomHandler.Create).Methods("POST", "OPTIONS")
	v1.HandleFunc("/rooms/{kind}/{room}", roomHandler.Get).Methods("GET", "OPTIONS")

	return r
}
