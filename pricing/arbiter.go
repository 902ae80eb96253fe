// Package pricing computes fair-price arbitration for one negotiation
// round: a buyer proposal and a seller proposal in, a fair price and a
// suggestion naming the party that should move out.
package pricing

import (
	"context"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// Result is one arbitration outcome, broadcast to both endpoints.
type Result struct {
	BuyerPrice  float64 `json:"buyer_price"`
	SellerPrice float64 `json:"seller_price"`
	FairPrice   float64 `json:"fair_price"`
	Suggestion  string  `json:"suggestion"`
}

// Arbiter reconciles one buyer and one seller proposal into a fair
// price. Implementations must stay bounded: a slow backing call has to
// time out via ctx rather than stall the session.
type Arbiter interface {
	FairPrice(ctx context.Context, buyerPrice, sellerPrice float64) (Result, error)
}

// Local derives the fair price without external calls. With a reference
// series it anchors on the historical median, otherwise on the midpoint
// of the two proposals. Deterministic for fixed inputs.
type Local struct {
	History []float64 // optional reference price series, read-only
}

func (l Local) FairPrice(_ context.Context, buyerPrice, sellerPrice float64) (Result, error) {
	return Compute(buyerPrice, sellerPrice, l.History), nil
}

// Compute implements the arbitration contract. Equal proposals are
// accepted as-is. Otherwise the fair price blends the reference price
// with both proposals, half weight on the reference and a quarter on
// each side, and the suggestion is keyed on where the seller stands
// relative to the fair price.
func Compute(buyerPrice, sellerPrice float64, history []float64) Result {
	res := Result{BuyerPrice: buyerPrice, SellerPrice: sellerPrice}

	if buyerPrice == sellerPrice {
		res.FairPrice = buyerPrice
		res.Suggestion = "prices match"
		return res
	}

	base := (buyerPrice + sellerPrice) / 2
	if len(history) > 0 {
		if median, err := stats.Median(history); err == nil {
			base = median
		}
	}
	fair := round2(0.5*base + 0.25*buyerPrice + 0.25*sellerPrice)
	res.FairPrice = fair

	switch {
	case sellerPrice > fair:
		res.Suggestion = fmt.Sprintf("seller should lower the price toward %.2f", fair)
	case sellerPrice < fair:
		res.Suggestion = fmt.Sprintf("seller could raise the price toward %.2f", fair)
	default:
		res.Suggestion = fmt.Sprintf("buyer should raise the offer toward %.2f", fair)
	}
	return res
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
