package booking

import (
	"github.com/seatwise/booking-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// FlatPricing charges the show's base price for every seat. It is the
// default policy; alternates (tiered rows, discounts) plug in through the
// domain.PricingPolicy interface.
type FlatPricing struct{}

func NewFlatPricing() FlatPricing {
	return FlatPricing{}
}

func (FlatPricing) Total(show *domain.Show, seatIDs []string) (decimal.Decimal, error) {
	if len(seatIDs) == 0 {
		return decimal.Zero, &domain.InvalidRequestError{Reason: "seat selection is empty"}
	}

	return show.BasePrice.Mul(decimal.NewFromInt(int64(len(seatIDs)))), nil
}
