// Package respond writes the JSON envelope shared by every endpoint:
// {"success": bool, "message": string, ...}.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/whisperly/backend/internal/apperr"
)

// Body is a response envelope. Extra fields are merged next to success and
// message.
type Body map[string]any

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", slog.Any("error", err))
	}
}

// OK writes a successful envelope.
func OK(w http.ResponseWriter, status int, body Body) {
	if body == nil {
		body = Body{}
	}
	body["success"] = true
	JSON(w, status, body)
}

// Message writes a successful envelope carrying only a message.
func Message(w http.ResponseWriter, status int, msg string) {
	OK(w, status, Body{"message": msg})
}

// Fail writes a failure envelope.
func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Body{"success": false, "message": msg})
}

// Error maps err onto a failure envelope. Internal errors are logged and
// replaced with a generic message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		Fail(w, kind.Status(), "Internal server error")
		return
	}

	Fail(w, kind.Status(), err.Error())
}

// Decode reads a JSON request body into v.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Invalid("Invalid request body")
	}
	return nil
}
