package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/duality-labs/dex-indexer/pkg/cache"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeRangeError maps cache range violations to client errors; everything
// else is a server error.
func writeRangeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cache.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid block range")
	case errors.Is(err, cache.ErrRangeNotSynced):
		writeError(w, http.StatusBadRequest, "block range not yet indexed")
	default:
		writeError(w, http.StatusInternalServerError, "query failed")
	}
}
