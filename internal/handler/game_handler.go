package handler

import (
	"net/http"

	"github.com/freeeve/holdfast/internal/auth"
	"github.com/freeeve/holdfast/internal/model"
	"github.com/freeeve/holdfast/internal/service"
)

// GameHandler handles game lifecycle endpoints.
type GameHandler struct {
	gameSvc *service.GameService
	turnSvc *service.TurnService
	wsHub   *Hub
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService, turnSvc *service.TurnService, wsHub *Hub) *GameHandler {
	return &GameHandler{gameSvc: gameSvc, turnSvc: turnSvc, wsHub: wsHub}
}

// CreateGame handles POST /api/v1/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var req service.CreateGameInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	game, err := h.gameSvc.CreateGame(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// ListGames handles GET /api/v1/games?filter=my|finished|open
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	games, err := h.gameSvc.ListGames(r.Context(), userID, r.URL.Query().Get("filter"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if games == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/v1/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	game, err := h.gameSvc.GetGame(r.Context(), gameID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if game.Status == model.StatusActive {
		if ready, _, err := h.turnSvc.ReadyCount(r.Context(), gameID); err == nil {
			game.ReadyCount = ready
		}
	}
	writeJSON(w, http.StatusOK, game)
}

// JoinGame handles POST /api/v1/games/{id}/join
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	if err := h.gameSvc.JoinGame(r.Context(), gameID, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.wsHub.BroadcastGameEvent(gameID, service.EventPlayerJoined, map[string]string{"user_id": userID})
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

// StartGame handles POST /api/v1/games/{id}/start
func (h *GameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	game, err := h.gameSvc.StartGame(r.Context(), gameID, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.wsHub.BroadcastGameEvent(gameID, service.EventGameStarted, game)
	writeJSON(w, http.StatusOK, game)
}

// DeleteGame handles DELETE /api/v1/games/{id}
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	if err := h.gameSvc.DeleteGame(r.Context(), gameID, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
