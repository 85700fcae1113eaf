package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/seatwise/booking-engine/internal/domain"
)

// Seat statuses live in one hash per show (seat id -> status). Reservation
// and release run as Lua scripts so the check and the writes execute as a
// single atomic step on the Redis side.
var reserveSeatsScript = redis.NewScript(`
	-- KEYS[1] = show seat hash, ARGV = seat ids

	if redis.call("EXISTS", KEYS[1]) == 0 then
		return redis.error_reply("show missing")
	end

	local conflicts = {}

	for i = 1, #ARGV do
		local status = redis.call("HGET", KEYS[1], ARGV[i])
		if status == false then
			return redis.error_reply("seat missing")
		end
		if status ~= "FREE" then
			table.insert(conflicts, ARGV[i])
		end
	end

	if #conflicts > 0 then
		return conflicts
	end

	for i = 1, #ARGV do
		redis.call("HSET", KEYS[1], ARGV[i], "BOOKED")
	end

	return {}
`)

var releaseSeatsScript = redis.NewScript(`
	-- KEYS[1] = show seat hash, ARGV = seat ids

	if redis.call("EXISTS", KEYS[1]) == 0 then
		return redis.error_reply("show missing")
	end

	for i = 1, #ARGV do
		if redis.call("HEXISTS", KEYS[1], ARGV[i]) == 1 then
			redis.call("HSET", KEYS[1], ARGV[i], "FREE")
		end
	end

	return 1
`)

// RedisSeatStore is a key-value backing for seat state, usable when the
// durable ledger lives elsewhere and seat availability is served from
// Redis.
type RedisSeatStore struct {
	client redis.UniversalClient
}

func NewRedisSeatStore(client redis.UniversalClient) *RedisSeatStore {
	return &RedisSeatStore{
		client: client,
	}
}

// InitShow seeds the seat hash for a show. Existing seats keep their
// status, so re-seeding after a restart is safe.
func (r *RedisSeatStore) InitShow(ctx context.Context, showID string, seatIDs []string) error {
	pipe := r.client.TxPipeline()

	for _, seatID := range seatIDs {
		pipe.HSetNX(ctx, showSeatsKey(showID), seatID, string(domain.SeatFree))
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	return nil
}

func (r *RedisSeatStore) GetStatuses(ctx context.Context, showID string, seatIDs []string) (map[string]domain.SeatStatus, error) {
	if len(seatIDs) == 0 {
		fields, err := r.client.HGetAll(ctx, showSeatsKey(showID)).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}

		if len(fields) == 0 {
			return nil, domain.ErrShowNotFound
		}

		statuses := make(map[string]domain.SeatStatus, len(fields))
		for seatID, status := range fields {
			statuses[seatID] = domain.SeatStatus(status)
		}

		return statuses, nil
	}

	values, err := r.client.HMGet(ctx, showSeatsKey(showID), seatIDs...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	statuses := make(map[string]domain.SeatStatus, len(seatIDs))

	for i, value := range values {
		status, ok := value.(string)
		if !ok {
			// HMGET yields nil both for an unknown seat and for an
			// unknown show; tell the two apart like the other backings.
			return nil, r.missingError(ctx, showID)
		}

		statuses[seatIDs[i]] = domain.SeatStatus(status)
	}

	return statuses, nil
}

func (r *RedisSeatStore) missingError(ctx context.Context, showID string) error {
	exists, err := r.client.Exists(ctx, showSeatsKey(showID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	if exists == 0 {
		return domain.ErrShowNotFound
	}

	return domain.ErrSeatNotFound
}

func (r *RedisSeatStore) TryReserve(ctx context.Context, showID string, seatIDs []string) error {
	args := make([]interface{}, len(seatIDs))
	for i, seatID := range seatIDs {
		args[i] = seatID
	}

	conflicts, err := reserveSeatsScript.Run(ctx, r.client, []string{showSeatsKey(showID)}, args...).StringSlice()
	if err != nil {
		switch {
		case redis.HasErrorPrefix(err, "show missing"):
			return domain.ErrShowNotFound
		case redis.HasErrorPrefix(err, "seat missing"):
			return domain.ErrSeatNotFound
		}

		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	if len(conflicts) > 0 {
		return &domain.SeatsUnavailableError{Seats: conflicts}
	}

	return nil
}

func (r *RedisSeatStore) Release(ctx context.Context, showID string, seatIDs []string) error {
	args := make([]interface{}, len(seatIDs))
	for i, seatID := range seatIDs {
		args[i] = seatID
	}

	err := releaseSeatsScript.Run(ctx, r.client, []string{showSeatsKey(showID)}, args...).Err()
	if err != nil {
		if redis.HasErrorPrefix(err, "show missing") {
			return domain.ErrShowNotFound
		}

		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	return nil
}

func showSeatsKey(showID string) string {
	return fmt.Sprintf("show:%s:seats", showID)
}
