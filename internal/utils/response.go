package utils

import (
	"encoding/json"
	"net/http"
)

// Payload is the envelope of every API response. Data carries the resource
// on success and, for partial share batches, the applied and failed targets.
type Payload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSONResponse writes payload with status. Encoding errors are dropped
// because the header is already sent.
func JSONResponse(w http.ResponseWriter, status int, payload Payload) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
