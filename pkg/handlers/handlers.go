// Package handlers provides shared HTTP response helpers for API endpoints.
// Every endpoint answers with the same envelope: code, message, and an
// optional data payload.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the uniform response body for API endpoints.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Respond writes an envelope with the given status, message, and data.
func Respond(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{
		Code:    status,
		Message: message,
		Data:    data,
	})
}

// RespondError logs the error and writes an envelope carrying its message.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	logger.Error("request failed", "status", status, "error", err)
	Respond(w, status, err.Error(), nil)
}
