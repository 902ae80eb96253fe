package main

import (
	"encoding/json"
	"net/http"
)

// handleHealth reports liveness plus the live parcel and negotiation
// session counts.
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"parcels":  len(a.registry.List()),
		"sessions": a.directory.Len(),
	})
}
