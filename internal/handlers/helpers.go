package handlers

import (
	"encoding/json"
	"net/http"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// RequireDevelopmentMode enforces the hardcoded safety boundary on
// automation-triggering endpoints: anything but mode "development" is
// rejected before any side effect. Returns true when the request may
// proceed.
func RequireDevelopmentMode(w http.ResponseWriter, mode string) bool {
	if mode != "development" {
		WriteError(w, http.StatusForbidden, "automation endpoints only accept mode \"development\"")
		return false
	}
	return true
}
