package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// errorResponse is the only error shape clients ever see
type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes v as a JSON response
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// respondWithError logs the internal error and returns only a stable
// category to the client
func respondWithError(w http.ResponseWriter, status int, category, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = category
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorResponse{Error: category})
}
