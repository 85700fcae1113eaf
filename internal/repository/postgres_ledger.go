package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/seatwise/booking-engine/internal/domain"
)

type PostgresBookingLedger struct {
	db *pgxpool.Pool
}

func NewPostgresBookingLedger(db *pgxpool.Pool) *PostgresBookingLedger {
	return &PostgresBookingLedger{
		db: db,
	}
}

func (p *PostgresBookingLedger) Create(ctx context.Context, booking *domain.Booking) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO bookings (id, user_id, show_id, total_price, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`

		_, err := tx.Exec(
			ctx,
			query,
			booking.ID,
			booking.UserID,
			booking.ShowID,
			booking.TotalPrice,
			booking.Status,
			booking.CreatedAt,
		)

		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return domain.ErrDuplicateBooking
			}

			return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}

		rows := make([][]any, 0, len(booking.Seats))
		for _, seatID := range booking.Seats {
			rows = append(rows, []any{
				booking.ID,
				booking.ShowID,
				seatID,
			})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"booking_seats"},
			[]string{"booking_id", "show_id", "seat_id"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}

		return nil
	})
}

func (p *PostgresBookingLedger) GetById(ctx context.Context, bookingID string) (*domain.Booking, error) {
	query := `
		SELECT id, user_id, show_id, total_price, status, created_at, cancelled_at
		FROM bookings
		WHERE id = $1
	`

	var booking domain.Booking

	err := p.db.QueryRow(ctx, query, bookingID).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.ShowID,
		&booking.TotalPrice,
		&booking.Status,
		&booking.CreatedAt,
		&booking.CancelledAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}

		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	booking.Seats, err = p.retrieveBookingSeats(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

// MarkCancelled flips the booking from CONFIRMED to CANCELLED. The
// conditional update is the idempotency guard: a booking that already left
// the CONFIRMED state is reported, never re-cancelled.
func (p *PostgresBookingLedger) MarkCancelled(ctx context.Context, bookingID string) (*domain.Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'CANCELLED', cancelled_at = NOW()
		WHERE id = $1 AND status = 'CONFIRMED'
		RETURNING id, user_id, show_id, total_price, status, created_at, cancelled_at
	`

	var booking domain.Booking

	err := p.db.QueryRow(ctx, query, bookingID).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.ShowID,
		&booking.TotalPrice,
		&booking.Status,
		&booking.CreatedAt,
		&booking.CancelledAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, p.cancelConflict(ctx, bookingID)
		}

		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	booking.Seats, err = p.retrieveBookingSeats(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (p *PostgresBookingLedger) cancelConflict(ctx context.Context, bookingID string) error {
	var status domain.BookingStatus

	err := p.db.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1`, bookingID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrBookingNotFound
		}

		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	if status == domain.BookingCancelled {
		return domain.ErrAlreadyCancelled
	}

	return domain.ErrBookingNotFound
}

func (p *PostgresBookingLedger) GetSummariesByUserId(
	ctx context.Context,
	userID string,
	pagination domain.Pagination) ([]domain.BookingSummary, *domain.Metadata, error) {

	query := `
		SELECT
			COUNT(*) OVER(),
			b.id,
			b.show_id,
			s.name,
			(SELECT COUNT(*) FROM booking_seats bs WHERE bs.booking_id = b.id),
			b.total_price,
			b.status,
			b.created_at
		FROM bookings b
		JOIN shows s ON b.show_id = s.id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.Query(ctx, query, userID, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	summaries := make([]domain.BookingSummary, 0)
	totalRecords := 0

	for rows.Next() {
		var summary domain.BookingSummary

		err = rows.Scan(
			&totalRecords,
			&summary.BookingID,
			&summary.ShowID,
			&summary.ShowName,
			&summary.SeatCount,
			&summary.TotalPrice,
			&summary.Status,
			&summary.CreatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}

		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return summaries, metadata, nil
}

func (p *PostgresBookingLedger) GetByShowId(ctx context.Context, showID string) ([]domain.Booking, error) {
	query := `
		SELECT id, user_id, show_id, total_price, status, created_at, cancelled_at
		FROM bookings
		WHERE show_id = $1
		ORDER BY created_at
	`

	rows, err := p.db.Query(ctx, query, showID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)

	for rows.Next() {
		var booking domain.Booking

		err = rows.Scan(
			&booking.ID,
			&booking.UserID,
			&booking.ShowID,
			&booking.TotalPrice,
			&booking.Status,
			&booking.CreatedAt,
			&booking.CancelledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}

		bookings = append(bookings, booking)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	for i := range bookings {
		bookings[i].Seats, err = p.retrieveBookingSeats(ctx, bookings[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return bookings, nil
}

func (p *PostgresBookingLedger) retrieveBookingSeats(ctx context.Context, bookingID string) ([]string, error) {
	query := `
		SELECT seat_id
		FROM booking_seats
		WHERE booking_id = $1
		ORDER BY seat_id
	`

	rows, err := p.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	seats := make([]string, 0)

	for rows.Next() {
		var seatID string

		err = rows.Scan(&seatID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}

		seats = append(seats, seatID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	return seats, nil
}
