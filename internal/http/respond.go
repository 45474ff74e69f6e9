package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tippool/internal/core"
	"tippool/internal/log"
	"tippool/internal/services"
	"tippool/internal/storage"
)

// errorBody is the wire shape of every non-2xx response.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type dataEnvelope struct {
	Data any `json:"data"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dataEnvelope{Data: payload})
}

func respondError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorBody{Kind: kind, Message: message}})
}

// respondServiceError maps domain errors onto HTTP statuses. Validation
// problems are the caller's fault (422); unrepresentable amounts and
// inventory shortfalls mean the configured profile cannot serve the
// request, which is an operator problem (500).
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidInput), errors.Is(err, core.ErrInvalidAmount):
		respondError(w, http.StatusUnprocessableEntity, "invalid_input", err.Error())
	case errors.Is(err, services.ErrUnknownProfile):
		respondError(w, http.StatusUnprocessableEntity, "unknown_profile", err.Error())
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "no such record")
	case errors.Is(err, core.ErrUnrepresentableAmount), errors.Is(err, core.ErrInsufficientInventory):
		log.FromContext(r.Context()).ErrorContext(r.Context(), "allocation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "allocation_failed", err.Error())
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
