package routing

import (
	"encoding/json"
	"net/http"
)

// ── JSON responses ────────────────────────────────────────────────────────────

type envelope map[string]any

// JSON sends a JSON response.
//
//	routing.JSON(w, http.StatusOK, map[string]any{"message": "ok"})
func JSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Success sends 200 JSON: {"data": v}
func Success(w http.ResponseWriter, v any) {
	_ = JSON(w, http.StatusOK, envelope{"data": v})
}

// Error sends a JSON error response.
//
//	routing.Error(w, http.StatusNotFound, "Resource not found")
func Error(w http.ResponseWriter, status int, message string) {
	_ = JSON(w, status, envelope{"message": message})
}

// ServerError sends 500.
func ServerError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "Server Error.")
}
