package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/seatwise/booking-engine/internal/domain"
)

type PostgresShowRepository struct {
	db *pgxpool.Pool
}

func NewPostgresShowRepository(db *pgxpool.Pool) *PostgresShowRepository {
	return &PostgresShowRepository{
		db: db,
	}
}

func (p *PostgresShowRepository) GetById(ctx context.Context, showID string) (*domain.Show, error) {
	query := `
		SELECT id, name, base_price
		FROM shows
		WHERE id = $1
	`

	var show domain.Show

	err := p.db.QueryRow(ctx, query, showID).Scan(&show.ID, &show.Name, &show.BasePrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrShowNotFound
		}

		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	query = `
		SELECT seat_id
		FROM show_seats
		WHERE show_id = $1
		ORDER BY seat_id
	`

	rows, err := p.db.Query(ctx, query, showID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var seatID string

		err = rows.Scan(&seatID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}

		show.Layout = append(show.Layout, seatID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	return &show, nil
}
