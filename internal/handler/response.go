package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/holdfast/internal/logger"
	"github.com/freeeve/holdfast/internal/service"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads and decodes JSON from a request body.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound),
		errors.Is(err, service.ErrTurnNotFound),
		errors.Is(err, service.ErrUnknownEntity):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotCreator),
		errors.Is(err, service.ErrNotInGame),
		errors.Is(err, service.ErrNotYourUnit),
		errors.Is(err, service.ErrNotYourTerritory):
		return http.StatusForbidden
	case errors.Is(err, service.ErrGameNotWaiting),
		errors.Is(err, service.ErrGameNotActive),
		errors.Is(err, service.ErrGameFull),
		errors.Is(err, service.ErrNotEnough),
		errors.Is(err, service.ErrAlreadyJoined):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidIntent),
		errors.Is(err, service.ErrInvalidSettings):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with the status statusFor picks. Internal
// errors are logged and not echoed to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		l := logger.ForRequest(r.Context())
		l.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}
