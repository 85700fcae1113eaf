package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Show is a bookable event instance with a fixed seat layout.
// Immutable after creation as far as the booking core is concerned.
type Show struct {
	ID        string
	Name      string
	BasePrice decimal.Decimal
	Layout    []string
}

// SeatSet returns the layout as a lookup set.
func (s *Show) SeatSet() map[string]bool {
	set := make(map[string]bool, len(s.Layout))
	for _, seatID := range s.Layout {
		set[seatID] = true
	}

	return set
}

type ShowRepository interface {
	GetById(ctx context.Context, showID string) (*Show, error)
}
