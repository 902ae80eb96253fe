package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// handlePriceHistory proxies the predictor's historical and forecast
// price series for the charting frontend.
func (a *App) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	hist, err := a.predictor.History(ctx)
	if err != nil {
		log.Println("price history fetch failed:", err)
		writeError(w, http.StatusBadGateway, "predictor_unavailable", "failed to fetch price history")
		return
	}
	_ = json.NewEncoder(w).Encode(hist)
}
