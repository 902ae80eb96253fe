package main

import (
	"context"
	"log"
	"time"

	"agrideal/pricing"
)

// predictorArbiter asks the remote price model first and degrades to
// the local heuristic when the call fails or times out, so a slow or
// missing predictor never stalls a negotiation. Equal proposals are
// settled locally; the tie rule does not depend on the model.
type predictorArbiter struct {
	remote  *PredictorClient
	local   pricing.Local
	timeout time.Duration
}

func (p predictorArbiter) FairPrice(ctx context.Context, buyerPrice, sellerPrice float64) (pricing.Result, error) {
	if buyerPrice == sellerPrice {
		return p.local.FairPrice(ctx, buyerPrice, sellerPrice)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	res, err := p.remote.Predict(ctx, buyerPrice, sellerPrice)
	if err != nil {
		log.Println("predictor unavailable, using local arbitration:", err)
		return p.local.FairPrice(ctx, buyerPrice, sellerPrice)
	}
	return res, nil
}
