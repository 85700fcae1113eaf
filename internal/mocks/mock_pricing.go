package mocks

import (
	"github.com/seatwise/booking-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockPricingPolicy struct {
	mock.Mock
	domain.PricingPolicy
}

func (m *MockPricingPolicy) Total(show *domain.Show, seatIDs []string) (decimal.Decimal, error) {
	args := m.Called(show, seatIDs)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
