package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"agrideal/pricing"
)

// PricePoint is one day of the historical or predicted series.
type PricePoint struct {
	Day   string  `json:"day"`
	Price float64 `json:"price"`
}

// PriceHistory is the predictor's series response.
type PriceHistory struct {
	History     []PricePoint `json:"history"`
	Predictions []PricePoint `json:"predictions"`
}

// predictReq mirrors the predictor wire format.
type predictReq struct {
	SellerPrice float64 `json:"seller_price"`
	BuyerPrice  float64 `json:"buyer_price"`
}

// PredictorClient calls the external price-model service.
type PredictorClient struct {
	baseURL string
	client  *http.Client
}

func newPredictorClient(baseURL string) *PredictorClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:5000"
	}
	return &PredictorClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Predict asks the model for a fair price given both proposals.
func (c *PredictorClient) Predict(ctx context.Context, buyerPrice, sellerPrice float64) (pricing.Result, error) {
	body, err := json.Marshal(predictReq{SellerPrice: sellerPrice, BuyerPrice: buyerPrice})
	if err != nil {
		return pricing.Result{}, fmt.Errorf("marshal predict req: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return pricing.Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return pricing.Result{}, fmt.Errorf("predictor call failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pricing.Result{}, fmt.Errorf("predictor non-2xx: %s, body: %s", resp.Status, string(data))
	}

	var out pricing.Result
	if err := json.Unmarshal(data, &out); err != nil {
		return pricing.Result{}, fmt.Errorf("decode predictor resp: %w", err)
	}
	return out, nil
}

// History fetches the recent price series plus the model's short
// forecast.
func (c *PredictorClient) History(ctx context.Context) (PriceHistory, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/price-history", nil)
	if err != nil {
		return PriceHistory{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return PriceHistory{}, fmt.Errorf("predictor call failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PriceHistory{}, fmt.Errorf("predictor non-2xx: %s, body: %s", resp.Status, string(data))
	}

	var out PriceHistory
	if err := json.Unmarshal(data, &out); err != nil {
		return PriceHistory{}, fmt.Errorf("decode predictor resp: %w", err)
	}
	return out, nil
}
