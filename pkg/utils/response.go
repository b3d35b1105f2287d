package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// RespondJSON writes a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError writes a structured error response.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// Credential resolves the caller-supplied model credential for a request:
// the X-Api-Key header wins, then the body field, else empty (the AI service
// applies the server default).
func Credential(r *http.Request, bodyKey string) string {
	if key := r.Header.Get("X-Api-Key"); key != "" {
		return key
	}
	return bodyKey
}
