/**
 * @description
 * JSON response helpers and the mapping from service errors to HTTP status
 * codes.
 */
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/remindyoursubs/backend/internal/app"
	"github.com/remindyoursubs/backend/internal/domain"
	"github.com/remindyoursubs/backend/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError translates a service error into the matching status code.
func respondWithError(w http.ResponseWriter, err error) {
	respondWithJSON(w, statusForError(err), errorResponse{Error: err.Error()})
}

func statusForError(err error) int {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrSubscriptionNotFound),
		errors.Is(err, store.ErrPaymentMethodNotFound),
		errors.Is(err, store.ErrNotificationNotFound),
		errors.Is(err, store.ErrPaymentAlertNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, app.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
