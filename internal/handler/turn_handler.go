package handler

import (
	"net/http"
	"strconv"

	"github.com/freeeve/holdfast/internal/service"
)

// TurnHandler serves the live map and turn history.
type TurnHandler struct {
	turnSvc *service.TurnService
}

// NewTurnHandler creates a TurnHandler.
func NewTurnHandler(turnSvc *service.TurnService) *TurnHandler {
	return &TurnHandler{turnSvc: turnSvc}
}

// Snapshot handles GET /api/v1/games/{id}/snapshot
func (h *TurnHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	gm, err := h.turnSvc.CurrentSnapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gm)
}

// ListTurns handles GET /api/v1/games/{id}/turns
func (h *TurnHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	turns, err := h.turnSvc.ListTurns(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if len(turns) == 0 {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, turns)
}

// GetTurn handles GET /api/v1/games/{id}/turns/{number}
func (h *TurnHandler) GetTurn(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 0 {
		writeError(w, http.StatusBadRequest, "turn number must be a non-negative integer")
		return
	}
	turn, err := h.turnSvc.GetTurn(r.Context(), r.PathValue("id"), number)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// Leaders handles GET /api/v1/games/{id}/leaders
func (h *TurnHandler) Leaders(w http.ResponseWriter, r *http.Request) {
	standings, err := h.turnSvc.Standings(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}
