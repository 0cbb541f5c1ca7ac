// Package httpx holds the JSON response helpers shared by the handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ayush/task-manager-api/internal/models"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// WriteMessage writes {"error": msg} with the given status code.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// StatusFor maps an error onto the HTTP status it should produce.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteError answers with the status StatusFor picks. Client errors carry the
// error text; server errors are logged and answered with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		WriteMessage(w, status, "internal error")
		return
	}
	WriteMessage(w, status, clientMessage(err))
}

// clientMessage strips the sentinel prefix so the body reads
// "email is invalid" rather than "validation failed: email is invalid".
func clientMessage(err error) string {
	msg := err.Error()
	for _, kind := range []error{models.ErrValidation, models.ErrAuthentication, models.ErrNotFound} {
		if rest, ok := strings.CutPrefix(msg, kind.Error()+": "); ok {
			return rest
		}
	}
	return msg
}

// Empty answers 200 with no body.
func Empty(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}
