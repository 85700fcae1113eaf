package mocks

import (
	"context"

	"github.com/seatwise/booking-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockSeatStateStore struct {
	mock.Mock
	domain.SeatStateStore
}

func (m *MockSeatStateStore) GetStatuses(ctx context.Context, showID string, seatIDs []string) (map[string]domain.SeatStatus, error) {
	args := m.Called(ctx, showID, seatIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.SeatStatus), args.Error(1)
}

func (m *MockSeatStateStore) TryReserve(ctx context.Context, showID string, seatIDs []string) error {
	args := m.Called(ctx, showID, seatIDs)
	return args.Error(0)
}

func (m *MockSeatStateStore) Release(ctx context.Context, showID string, seatIDs []string) error {
	args := m.Called(ctx, showID, seatIDs)
	return args.Error(0)
}
