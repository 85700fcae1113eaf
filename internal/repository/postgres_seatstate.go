package repository

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/seatwise/booking-engine/internal/domain"
)

// A peer transaction holding one of the requested rows can stall a
// reservation attempt for at most this long; after that the attempt fails
// as a storage fault instead of queueing behind the lock indefinitely.
const reserveLockTimeout = 3 * time.Second

// PostgresSeatStore keeps seat availability in the show_seats table. A
// reservation attempt locks exactly the requested rows inside one
// transaction, so concurrent attempts for overlapping seats serialize at
// the row locks while disjoint seat sets proceed in parallel.
type PostgresSeatStore struct {
	db *pgxpool.Pool
}

func NewPostgresSeatStore(db *pgxpool.Pool) *PostgresSeatStore {
	return &PostgresSeatStore{
		db: db,
	}
}

func (p *PostgresSeatStore) GetStatuses(ctx context.Context, showID string, seatIDs []string) (map[string]domain.SeatStatus, error) {
	var (
		query string
		args  []any
	)

	if len(seatIDs) == 0 {
		query = `
			SELECT seat_id, status
			FROM show_seats
			WHERE show_id = $1
		`
		args = []any{showID}
	} else {
		query = `
			SELECT seat_id, status
			FROM show_seats
			WHERE show_id = $1 AND seat_id = ANY($2)
		`
		args = []any{showID, seatIDs}
	}

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	statuses := make(map[string]domain.SeatStatus)

	for rows.Next() {
		var (
			seatID string
			status domain.SeatStatus
		)

		err = rows.Scan(&seatID, &status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}

		statuses[seatID] = status
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	if len(statuses) == 0 {
		return nil, p.missingError(ctx, showID)
	}

	for _, seatID := range seatIDs {
		if _, ok := statuses[seatID]; !ok {
			return nil, domain.ErrSeatNotFound
		}
	}

	return statuses, nil
}

// TryReserve is the linearization point. The requested rows are locked in a
// stable order, checked, and flipped in a single transaction: either every
// seat moves FREE -> BOOKED or the transaction rolls back untouched and the
// conflicting subset is reported.
func (p *PostgresSeatStore) TryReserve(ctx context.Context, showID string, seatIDs []string) error {
	// Stable lock order prevents deadlocks between overlapping requests.
	ordered := slices.Clone(seatIDs)
	slices.Sort(ordered)

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		// SET LOCAL scopes the timeout to this transaction.
		_, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", reserveLockTimeout.Milliseconds()))
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}

		query := `
			SELECT seat_id, status
			FROM show_seats
			WHERE show_id = $1 AND seat_id = ANY($2)
			ORDER BY seat_id
			FOR UPDATE
		`

		rows, err := tx.Query(ctx, query, showID, ordered)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
		defer rows.Close()

		var conflicts []string
		found := 0

		for rows.Next() {
			var (
				seatID string
				status domain.SeatStatus
			)

			err = rows.Scan(&seatID, &status)
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
			}

			found++

			if status != domain.SeatFree {
				conflicts = append(conflicts, seatID)
			}
		}

		if err = rows.Err(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}

		if found != len(ordered) {
			if found == 0 {
				return p.missingError(ctx, showID)
			}

			return domain.ErrSeatNotFound
		}

		if len(conflicts) > 0 {
			return &domain.SeatsUnavailableError{Seats: conflicts}
		}

		update := `
			UPDATE show_seats
			SET status = 'BOOKED', version = version + 1, updated_at = NOW()
			WHERE show_id = $1 AND seat_id = ANY($2)
		`

		_, err = tx.Exec(ctx, update, showID, ordered)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}

		return nil
	})

	return err
}

func (p *PostgresSeatStore) Release(ctx context.Context, showID string, seatIDs []string) error {
	query := `
		UPDATE show_seats
		SET status = 'FREE', version = version + 1, updated_at = NOW()
		WHERE show_id = $1 AND seat_id = ANY($2) AND status = 'BOOKED'
	`

	_, err := p.db.Exec(ctx, query, showID, seatIDs)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	return nil
}

func (p *PostgresSeatStore) missingError(ctx context.Context, showID string) error {
	var exists bool

	err := p.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shows WHERE id = $1)`, showID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	if !exists {
		return domain.ErrShowNotFound
	}

	return domain.ErrSeatNotFound
}
