// Package booking implements the reservation core: all-or-nothing seat
// acquisition, the booking ledger orchestration, and the compensation path
// that keeps seat state and ledger consistent across partial failures.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/seatwise/booking-engine/internal/domain"
)

const (
	releaseAttempts = 3
	releaseBackoff  = 100 * time.Millisecond
)

// Coordinator orchestrates booking requests end-to-end. It owns no seat
// state itself: the SeatStateStore serializes conflicting reservations, so
// any number of coordinators can run in parallel.
type Coordinator struct {
	shows   domain.ShowRepository
	seats   domain.SeatStateStore
	ledger  domain.BookingLedger
	pricing domain.PricingPolicy
	logger  *slog.Logger
}

func NewCoordinator(
	shows domain.ShowRepository,
	seats domain.SeatStateStore,
	ledger domain.BookingLedger,
	pricing domain.PricingPolicy,
	logger *slog.Logger) *Coordinator {

	return &Coordinator{
		shows:   shows,
		seats:   seats,
		ledger:  ledger,
		pricing: pricing,
		logger:  logger,
	}
}

// Book validates the request, reserves every requested seat atomically,
// prices the selection, and appends a CONFIRMED record to the ledger.
// A failure after the reservation succeeded releases the same seat set
// before the error is surfaced, so the caller never observes seats held
// without a matching ledger entry.
func (c *Coordinator) Book(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	show, err := c.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	err = c.seats.TryReserve(ctx, req.ShowID, req.SeatIDs)
	if err != nil {
		return nil, err
	}

	total, err := c.pricing.Total(show, req.SeatIDs)
	if err != nil {
		return nil, c.compensate(ctx, "", req, err)
	}

	booking := &domain.Booking{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		ShowID:     req.ShowID,
		Seats:      slices.Clone(req.SeatIDs),
		TotalPrice: total,
		Status:     domain.BookingConfirmed,
		CreatedAt:  time.Now().UTC(),
	}

	err = c.ledger.Create(ctx, booking)
	if err != nil {
		return nil, c.compensate(ctx, booking.ID, req, err)
	}

	return booking, nil
}

// Cancel flips a booking from CONFIRMED to CANCELLED and frees exactly its
// seat set. The ledger transition is the idempotency guard: a second call
// for the same booking reports ErrAlreadyCancelled instead of silently
// succeeding.
func (c *Coordinator) Cancel(ctx context.Context, bookingID string) error {
	booking, err := c.ledger.MarkCancelled(ctx, bookingID)
	if err != nil {
		return err
	}

	err = c.releaseWithRetry(ctx, booking.ShowID, booking.Seats)
	if err != nil {
		compErr := &domain.CompensationError{
			BookingID: bookingID,
			ShowID:    booking.ShowID,
			Seats:     booking.Seats,
			Cause:     err,
		}

		c.logger.Error(
			"seat release after cancellation failed, seats need manual reconciliation",
			"booking_id", bookingID,
			"show_id", booking.ShowID,
			"seat_ids", booking.Seats,
			"error", err,
		)

		return compErr
	}

	return nil
}

// Availability returns the show together with the status of every seat in
// its layout.
func (c *Coordinator) Availability(ctx context.Context, showID string) (*domain.Show, map[string]domain.SeatStatus, error) {
	show, err := c.shows.GetById(ctx, showID)
	if err != nil {
		return nil, nil, err
	}

	statuses, err := c.seats.GetStatuses(ctx, showID, nil)
	if err != nil {
		return nil, nil, err
	}

	return show, statuses, nil
}

func (c *Coordinator) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return c.ledger.GetById(ctx, bookingID)
}

func (c *Coordinator) ListUserBookings(
	ctx context.Context,
	userID string,
	pagination domain.Pagination) ([]domain.BookingSummary, *domain.Metadata, error) {

	return c.ledger.GetSummariesByUserId(ctx, userID, pagination)
}

func (c *Coordinator) ListShowBookings(ctx context.Context, showID string) ([]domain.Booking, error) {
	_, err := c.shows.GetById(ctx, showID)
	if err != nil {
		return nil, err
	}

	return c.ledger.GetByShowId(ctx, showID)
}

func (c *Coordinator) validate(ctx context.Context, req domain.BookingRequest) (*domain.Show, error) {
	if req.UserID == "" {
		return nil, &domain.InvalidRequestError{Reason: "user id is required"}
	}

	if len(req.SeatIDs) == 0 {
		return nil, &domain.InvalidRequestError{Reason: "seat selection is empty"}
	}

	seen := make(map[string]bool, len(req.SeatIDs))
	for _, seatID := range req.SeatIDs {
		if seen[seatID] {
			return nil, &domain.InvalidRequestError{
				Reason: fmt.Sprintf("duplicate seat %q in selection", seatID),
			}
		}

		seen[seatID] = true
	}

	show, err := c.shows.GetById(ctx, req.ShowID)
	if err != nil {
		return nil, err
	}

	layout := show.SeatSet()
	for _, seatID := range req.SeatIDs {
		if !layout[seatID] {
			return nil, &domain.InvalidRequestError{
				Reason: fmt.Sprintf("seat %q does not exist in show %s", seatID, show.ID),
			}
		}
	}

	return show, nil
}

// compensate releases the seats of a reservation whose follow-up step
// failed, then surfaces the original cause. If the release itself fails
// after retries the error escalates to a CompensationError, which the
// operator must reconcile manually.
func (c *Coordinator) compensate(ctx context.Context, bookingID string, req domain.BookingRequest, cause error) error {
	relErr := c.releaseWithRetry(ctx, req.ShowID, req.SeatIDs)
	if relErr == nil {
		return cause
	}

	compErr := &domain.CompensationError{
		BookingID: bookingID,
		ShowID:    req.ShowID,
		Seats:     req.SeatIDs,
		Cause:     relErr,
	}

	c.logger.Error(
		"compensation failed, seats need manual reconciliation",
		"booking_id", bookingID,
		"show_id", req.ShowID,
		"seat_ids", req.SeatIDs,
		"ledger_error", cause,
		"release_error", relErr,
	)

	return compErr
}

func (c *Coordinator) releaseWithRetry(ctx context.Context, showID string, seatIDs []string) error {
	var err error

	for attempt := 0; attempt < releaseAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(releaseBackoff << attempt):
			}
		}

		err = c.seats.Release(ctx, showID, seatIDs)
		if err == nil {
			return nil
		}
	}

	return err
}
