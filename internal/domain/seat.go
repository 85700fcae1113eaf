package domain

import "context"

type SeatStatus string

const (
	SeatFree   SeatStatus = "FREE"
	SeatBooked SeatStatus = "BOOKED"
)

// SeatState is the authoritative availability record of a single seat.
// The version counter backs optimistic concurrency in stores that need it.
type SeatState struct {
	SeatID  string
	Status  SeatStatus
	Version int
}

// SeatStateStore owns seat availability per show. TryReserve is the single
// linearization point for bookings: two concurrent calls with overlapping
// seat sets can never both succeed for the overlap.
type SeatStateStore interface {
	// GetStatuses returns the status of the given seats. An empty seatIDs
	// slice means every seat in the show's layout.
	GetStatuses(ctx context.Context, showID string, seatIDs []string) (map[string]SeatStatus, error)

	// TryReserve atomically flips every given seat from FREE to BOOKED.
	// If any seat is not FREE, no seat is modified and the returned error is
	// a *SeatsUnavailableError carrying the conflicting subset.
	TryReserve(ctx context.Context, showID string, seatIDs []string) error

	// Release flips the given seats from BOOKED back to FREE. Releasing a
	// seat that is already FREE is a no-op.
	Release(ctx context.Context, showID string, seatIDs []string) error
}
