package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking is the durable record of one successful all-or-nothing seat
// acquisition. The seat set is immutable once confirmed; only the status
// can change, and CANCELLED is terminal.
type Booking struct {
	ID          string
	UserID      string
	ShowID      string
	Seats       []string
	TotalPrice  decimal.Decimal
	Status      BookingStatus
	CreatedAt   time.Time
	CancelledAt *time.Time
}

// BookingRequest is the transient input to the coordinator. Not persisted.
type BookingRequest struct {
	UserID  string
	ShowID  string
	SeatIDs []string
}

type BookingSummary struct {
	BookingID  string
	ShowID     string
	ShowName   string
	SeatCount  int
	TotalPrice decimal.Decimal
	Status     BookingStatus
	CreatedAt  time.Time
}

// BookingLedger is the append-only record of bookings. Create and
// MarkCancelled are serialized per booking id; reads carry no special
// concurrency concerns.
type BookingLedger interface {
	Create(ctx context.Context, booking *Booking) error
	GetById(ctx context.Context, bookingID string) (*Booking, error)

	// MarkCancelled atomically transitions CONFIRMED to CANCELLED and
	// returns the updated booking. ErrBookingNotFound if the id is unknown,
	// ErrAlreadyCancelled if the transition already happened.
	MarkCancelled(ctx context.Context, bookingID string) (*Booking, error)

	GetSummariesByUserId(ctx context.Context, userID string, pagination Pagination) ([]BookingSummary, *Metadata, error)
	GetByShowId(ctx context.Context, showID string) ([]Booking, error)
}

// PricingPolicy maps a show and seat selection to a total price. Pure and
// stateless so alternate strategies can be injected without touching the
// coordinator.
type PricingPolicy interface {
	Total(show *Show, seatIDs []string) (decimal.Decimal, error)
}
