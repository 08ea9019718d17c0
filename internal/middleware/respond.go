package middleware

import (
	"encoding/json"
	"net/http"
)

// writeDetail writes {"detail": msg}, the error body used across the API.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}
