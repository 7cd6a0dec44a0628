package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/holdfast/internal/auth"
	"github.com/freeeve/holdfast/internal/service"
)

// IntentHandler accepts player intents for the current turn.
type IntentHandler struct {
	intentSvc *service.IntentService
	turnSvc   *service.TurnService
	wsHub     *Hub
}

// NewIntentHandler creates an IntentHandler.
func NewIntentHandler(intentSvc *service.IntentService, turnSvc *service.TurnService, wsHub *Hub) *IntentHandler {
	return &IntentHandler{intentSvc: intentSvc, turnSvc: turnSvc, wsHub: wsHub}
}

// SubmitIntent handles POST /api/v1/games/{id}/intents
func (h *IntentHandler) SubmitIntent(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var req service.IntentInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.intentSvc.SubmitIntent(r.Context(), gameID, userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if req.Type == service.IntentReady {
		h.wsHub.BroadcastGameEvent(gameID, service.EventPlayerReady, map[string]any{
			"user_id":     userID,
			"ready_count": res.ReadyCount,
			"total":       res.TotalPlayers,
		})
	}

	if res.AllReady {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := h.turnSvc.ResolveTurnEarly(ctx, gameID); err != nil {
				log.Error().Err(err).Str("gameId", gameID).Msg("Early turn resolution failed")
			}
		}()
	}

	writeJSON(w, http.StatusOK, res)
}
