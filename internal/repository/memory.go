package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/seatwise/booking-engine/internal/domain"
)

// In-memory backings. They satisfy the same contracts as the Postgres and
// Redis implementations and double as the embedded backend and the test
// double for the coordinator's property tests.

type MemoryShowRepository struct {
	mu    sync.RWMutex
	shows map[string]*domain.Show
}

func NewMemoryShowRepository() *MemoryShowRepository {
	return &MemoryShowRepository{
		shows: make(map[string]*domain.Show),
	}
}

func (m *MemoryShowRepository) Add(show *domain.Show) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shows[show.ID] = show
}

func (m *MemoryShowRepository) GetById(_ context.Context, showID string) (*domain.Show, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	show, ok := m.shows[showID]
	if !ok {
		return nil, domain.ErrShowNotFound
	}

	clone := *show
	clone.Layout = slices.Clone(show.Layout)

	return &clone, nil
}

// MemorySeatStore serializes conflicting reservations on a per-show mutex.
// Requests for different shows never contend.
type MemorySeatStore struct {
	mu    sync.RWMutex
	shows map[string]*memShowSeats
}

type memShowSeats struct {
	mu    sync.Mutex
	seats map[string]*domain.SeatState
}

func NewMemorySeatStore() *MemorySeatStore {
	return &MemorySeatStore{
		shows: make(map[string]*memShowSeats),
	}
}

func (m *MemorySeatStore) InitShow(_ context.Context, showID string, seatIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	show, ok := m.shows[showID]
	if !ok {
		show = &memShowSeats{seats: make(map[string]*domain.SeatState, len(seatIDs))}
		m.shows[showID] = show
	}

	show.mu.Lock()
	defer show.mu.Unlock()

	for _, seatID := range seatIDs {
		if _, ok := show.seats[seatID]; !ok {
			show.seats[seatID] = &domain.SeatState{SeatID: seatID, Status: domain.SeatFree}
		}
	}

	return nil
}

func (m *MemorySeatStore) GetStatuses(_ context.Context, showID string, seatIDs []string) (map[string]domain.SeatStatus, error) {
	show, err := m.show(showID)
	if err != nil {
		return nil, err
	}

	show.mu.Lock()
	defer show.mu.Unlock()

	statuses := make(map[string]domain.SeatStatus)

	if len(seatIDs) == 0 {
		for seatID, seat := range show.seats {
			statuses[seatID] = seat.Status
		}

		return statuses, nil
	}

	for _, seatID := range seatIDs {
		seat, ok := show.seats[seatID]
		if !ok {
			return nil, domain.ErrSeatNotFound
		}

		statuses[seatID] = seat.Status
	}

	return statuses, nil
}

func (m *MemorySeatStore) TryReserve(_ context.Context, showID string, seatIDs []string) error {
	show, err := m.show(showID)
	if err != nil {
		return err
	}

	show.mu.Lock()
	defer show.mu.Unlock()

	var conflicts []string

	for _, seatID := range seatIDs {
		seat, ok := show.seats[seatID]
		if !ok {
			return domain.ErrSeatNotFound
		}

		if seat.Status != domain.SeatFree {
			conflicts = append(conflicts, seatID)
		}
	}

	if len(conflicts) > 0 {
		return &domain.SeatsUnavailableError{Seats: conflicts}
	}

	for _, seatID := range seatIDs {
		seat := show.seats[seatID]
		seat.Status = domain.SeatBooked
		seat.Version++
	}

	return nil
}

func (m *MemorySeatStore) Release(_ context.Context, showID string, seatIDs []string) error {
	show, err := m.show(showID)
	if err != nil {
		return err
	}

	show.mu.Lock()
	defer show.mu.Unlock()

	for _, seatID := range seatIDs {
		seat, ok := show.seats[seatID]
		if !ok {
			continue
		}

		if seat.Status == domain.SeatBooked {
			seat.Status = domain.SeatFree
			seat.Version++
		}
	}

	return nil
}

func (m *MemorySeatStore) show(showID string) (*memShowSeats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	show, ok := m.shows[showID]
	if !ok {
		return nil, domain.ErrShowNotFound
	}

	return show, nil
}

type MemoryBookingLedger struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking
	shows    domain.ShowRepository
}

func NewMemoryBookingLedger(shows domain.ShowRepository) *MemoryBookingLedger {
	return &MemoryBookingLedger{
		bookings: make(map[string]*domain.Booking),
		shows:    shows,
	}
}

func (m *MemoryBookingLedger) Create(_ context.Context, booking *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bookings[booking.ID]; ok {
		return domain.ErrDuplicateBooking
	}

	m.bookings[booking.ID] = cloneBooking(booking)

	return nil
}

func (m *MemoryBookingLedger) GetById(_ context.Context, bookingID string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	booking, ok := m.bookings[bookingID]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}

	return cloneBooking(booking), nil
}

func (m *MemoryBookingLedger) MarkCancelled(_ context.Context, bookingID string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	booking, ok := m.bookings[bookingID]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}

	if booking.Status == domain.BookingCancelled {
		return nil, domain.ErrAlreadyCancelled
	}

	now := time.Now().UTC()
	booking.Status = domain.BookingCancelled
	booking.CancelledAt = &now

	return cloneBooking(booking), nil
}

func (m *MemoryBookingLedger) GetSummariesByUserId(
	ctx context.Context,
	userID string,
	pagination domain.Pagination) ([]domain.BookingSummary, *domain.Metadata, error) {

	// Clone while holding the lock: MarkCancelled mutates bookings in
	// place, so the snapshot must not alias the stored structs.
	m.mu.RLock()

	var matched []*domain.Booking
	for _, booking := range m.bookings {
		if booking.UserID == userID {
			matched = append(matched, cloneBooking(booking))
		}
	}

	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(pagination.Offset(), total)
	end := min(start+pagination.Limit(), total)

	summaries := make([]domain.BookingSummary, 0, end-start)

	for _, booking := range matched[start:end] {
		summary := domain.BookingSummary{
			BookingID:  booking.ID,
			ShowID:     booking.ShowID,
			SeatCount:  len(booking.Seats),
			TotalPrice: booking.TotalPrice,
			Status:     booking.Status,
			CreatedAt:  booking.CreatedAt,
		}

		if show, err := m.shows.GetById(ctx, booking.ShowID); err == nil {
			summary.ShowName = show.Name
		}

		summaries = append(summaries, summary)
	}

	metadata := domain.NewMetadata(total, pagination.Page, pagination.PageSize)

	return summaries, metadata, nil
}

func (m *MemoryBookingLedger) GetByShowId(_ context.Context, showID string) ([]domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bookings := make([]domain.Booking, 0)

	for _, booking := range m.bookings {
		if booking.ShowID == showID {
			bookings = append(bookings, *cloneBooking(booking))
		}
	}

	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
	})

	return bookings, nil
}

func cloneBooking(booking *domain.Booking) *domain.Booking {
	clone := *booking
	clone.Seats = slices.Clone(booking.Seats)

	if booking.CancelledAt != nil {
		at := *booking.CancelledAt
		clone.CancelledAt = &at
	}

	return &clone
}
