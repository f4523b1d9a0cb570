package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/minicrm/server/internal/model"
)

// writeAuthError maps service errors to HTTP outcomes. Validation and
// authentication rejections carry their own user-visible messages;
// anything else is a system failure and only the generic fallback is
// exposed, the detail stays in the logs.
func writeAuthError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrEmailTaken):
		writeMessage(w, http.StatusBadRequest, model.ErrEmailTaken.Error())
	case errors.Is(err, model.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, model.ErrInvalidCredentials.Error())
	case errors.Is(err, model.ErrPasswordless):
		writeMessage(w, http.StatusUnauthorized, model.ErrPasswordless.Error())
	case errors.Is(err, model.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "user not found")
	default:
		writeMessage(w, http.StatusInternalServerError, fallback)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// decodeJSON parses the request body, answering 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
