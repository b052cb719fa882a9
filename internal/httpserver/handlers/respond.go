package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marque-app/marque/internal/domain"
)

// Every response is the discriminated envelope: {"data": ...} on
// success, {"error": "message"} on failure. Callers always have a
// determinate outcome to render.

func writeData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeFailure maps domain errors to the envelope. Store causes never
// leak to the client; only the generic message does.
func writeFailure(w http.ResponseWriter, err error) {
	verr := &domain.ValidationError{}
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Reason)
		return
	}

	serr := &domain.StoreError{}
	if errors.As(err, &serr) {
		writeError(w, http.StatusBadGateway, serr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "bookmark not found")
	case errors.Is(err, domain.ErrPlaceholder):
		writeError(w, http.StatusConflict, "bookmark is still being saved")
	case errors.Is(err, domain.ErrDeleteInFlight):
		writeError(w, http.StatusConflict, "delete already in progress")
	default:
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
