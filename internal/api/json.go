package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/marloe/tend/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// decodeJSON decodes a request body into v with a 1 MiB cap. On failure
// it writes a 400 response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

type errResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps error kinds to HTTP statuses: validation → 400,
// not_found → 404, everything else (transaction and unclassified) → 500.
// Validation and not-found messages go to the client; internal failures
// are logged and masked.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case apperr.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errResponse{Error: err.Error(), Kind: string(apperr.KindValidation)})
	case apperr.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errResponse{Error: err.Error(), Kind: string(apperr.KindNotFound)})
	default:
		if apperr.IsFatal(err) {
			slog.Error("FATAL: rollback failed, state needs manual reconciliation", slog.String("error", err.Error()))
		} else {
			slog.Error("request failed", slog.String("error", err.Error()))
		}
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
