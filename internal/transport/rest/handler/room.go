package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"partyrooms/internal/model"
	"partyrooms/internal/service"
)

// RoomHandler handles room endpoints
type RoomHandler struct {
	roomSvc *service.RoomService
	log     *slog.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomSvc *service.RoomService, log *slog.Logger) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc, log: log}
}

// Get handles GET /v1/rooms/{kind}/{room}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := model.RoomKind(vars["kind"])

	info, err := h.roomSvc.GetRoom(r.Context(), kind, vars["room"])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// CreateRoomResponse carries a fresh room id
type CreateRoomResponse struct {
	Kind model.RoomKind `json:"kind"`
	Room string         `json:"room"`
}

// Create handles POST /v1/rooms/{kind}
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind := model.RoomKind(mux.Vars(r)["kind"])

	code, err := h.roomSvc.NewRoomCode(r.Context(), kind)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateRoomResponse{Kind: kind, Room: code})
}

func (h *RoomHandler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrUnknownKind) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.log.Error("room request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
