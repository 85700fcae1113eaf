package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/seatwise/booking-engine/internal/booking"
	"github.com/seatwise/booking-engine/internal/domain"
	"github.com/seatwise/booking-engine/internal/repository"
	"github.com/seatwise/booking-engine/internal/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type testStores struct {
	shows  *repository.MemoryShowRepository
	seats  *repository.MemorySeatStore
	ledger *repository.MemoryBookingLedger
}

func newTestApplication(t *testing.T, opts ...func(*Application)) (*Application, *testStores) {
	t.Helper()

	shows := repository.NewMemoryShowRepository()
	seats := repository.NewMemorySeatStore()
	ledger := repository.NewMemoryBookingLedger(shows)

	show := &domain.Show{
		ID:        "S1",
		Name:      "Evening Premiere",
		BasePrice: decimal.NewFromInt(200),
		Layout:    []string{"A1", "A2", "A3"},
	}
	shows.Add(show)

	err := seats.InitShow(context.Background(), show.ID, show.Layout)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app := &Application{
		config:      Config{Env: "test"},
		logger:      logger,
		validator:   validator.NewValidator(),
		coordinator: booking.NewCoordinator(shows, seats, ledger, booking.NewFlatPricing(), logger),
	}

	for _, opt := range opts {
		opt(app)
	}

	stores := &testStores{shows: shows, seats: seats, ledger: ledger}

	return app, stores
}

func executeRequest(t *testing.T, app *Application, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		payload, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, url, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	app.Routes().ServeHTTP(rr, req)

	return rr
}

func decodeResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	err := json.NewDecoder(rr.Body).Decode(&out)
	require.NoError(t, err)

	return out
}

func checkErrorResponse(t *testing.T, rr *httptest.ResponseRecorder, wantStatus int, wantMessage string) {
	t.Helper()

	require.Equal(t, wantStatus, rr.Code)

	var resp struct {
		Message string `json:"message"`
	}
	err := json.NewDecoder(rr.Body).Decode(&resp)
	require.NoError(t, err)
	require.Equal(t, wantMessage, resp.Message)
}

func mustBook(t *testing.T, app *Application, userID, showID string, seatIDs []string) *domain.Booking {
	t.Helper()

	booking, err := app.coordinator.Book(context.Background(), domain.BookingRequest{
		UserID:  userID,
		ShowID:  showID,
		SeatIDs: seatIDs,
	})
	require.NoError(t, err)

	return booking
}
