package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seatwise/booking-engine/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBookingHandler(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		body       any
		setup      func(t *testing.T, app *Application)
		wantStatus int
		check      func(t *testing.T, rr *httptest.ResponseRecorder)
	}{
		{
			name:       "creates a booking",
			url:        "/v1/shows/S1/bookings",
			body:       api.CreateBookingRequest{UserId: "u1", SeatIds: []string{"A1", "A2"}},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				resp := decodeResponse[api.BookingResponse](t, rr)

				assert.NotEmpty(t, resp.Booking.Id)
				assert.Equal(t, "u1", resp.Booking.UserId)
				assert.Equal(t, "S1", resp.Booking.ShowId)
				assert.Equal(t, []string{"A1", "A2"}, resp.Booking.Seats)
				assert.Equal(t, "CONFIRMED", resp.Booking.Status)
				assert.Equal(t, "400", resp.Booking.TotalPrice.String())
			},
		},
		{
			name: "conflict lists the unavailable seats",
			url:  "/v1/shows/S1/bookings",
			body: api.CreateBookingRequest{UserId: "u2", SeatIds: []string{"A2", "A3"}},
			setup: func(t *testing.T, app *Application) {
				mustBook(t, app, "u1", "S1", []string{"A2"})
			},
			wantStatus: http.StatusConflict,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				resp := decodeResponse[api.ConflictResponse](t, rr)

				assert.Equal(t, "Some of the selected seats are already booked", resp.Message)
				assert.Equal(t, []string{"A2"}, resp.Seats)
			},
		},
		{
			name:       "unknown show",
			url:        "/v1/shows/S404/bookings",
			body:       api.CreateBookingRequest{UserId: "u1", SeatIds: []string{"A1"}},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "seat outside the layout",
			url:        "/v1/shows/S1/bookings",
			body:       api.CreateBookingRequest{UserId: "u1", SeatIds: []string{"Z9"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			url:        "/v1/shows/S1/bookings",
			body:       `{"user_id": "u1", "seat_ids": [`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field in body",
			url:        "/v1/shows/S1/bookings",
			body:       `{"user_id": "u1", "seat_ids": ["A1"], "price": 10}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing user id fails validation",
			url:        "/v1/shows/S1/bookings",
			body:       api.CreateBookingRequest{SeatIds: []string{"A1"}},
			wantStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				resp := decodeResponse[api.ValidationErrorResponse](t, rr)

				require.Len(t, resp.ValidationErrors, 1)
				assert.Equal(t, "UserId", resp.ValidationErrors[0].Field)
			},
		},
		{
			name:       "empty seat list fails validation",
			url:        "/v1/shows/S1/bookings",
			body:       api.CreateBookingRequest{UserId: "u1", SeatIds: []string{}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "duplicate seats fail validation",
			url:        "/v1/shows/S1/bookings",
			body:       api.CreateBookingRequest{UserId: "u1", SeatIds: []string{"A1", "A1"}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "seat id with invalid characters fails validation",
			url:        "/v1/shows/S1/bookings",
			body:       api.CreateBookingRequest{UserId: "u1", SeatIds: []string{"A1;DROP"}},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApplication(t)

			if tt.setup != nil {
				tt.setup(t, app)
			}

			rr := executeRequest(t, app, http.MethodPost, tt.url, tt.body)

			require.Equal(t, tt.wantStatus, rr.Code)

			if tt.check != nil {
				tt.check(t, rr)
			}
		})
	}
}

func TestGetBookingHandler(t *testing.T) {
	app, _ := newTestApplication(t)
	booking := mustBook(t, app, "u1", "S1", []string{"A1"})

	rr := executeRequest(t, app, http.MethodGet, "/v1/bookings/"+booking.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decodeResponse[api.BookingResponse](t, rr)
	assert.Equal(t, booking.ID, resp.Booking.Id)
	assert.Nil(t, resp.Booking.CancelledAt)

	rr = executeRequest(t, app, http.MethodGet, "/v1/bookings/b404", nil)
	checkErrorResponse(t, rr, http.StatusNotFound, "The requested resource not found")
}

func TestCancelBookingHandler(t *testing.T) {
	app, stores := newTestApplication(t)
	booking := mustBook(t, app, "u1", "S1", []string{"A1", "A2"})

	rr := executeRequest(t, app, http.MethodDelete, "/v1/bookings/"+booking.ID, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	statuses, err := stores.seats.GetStatuses(t.Context(), "S1", []string{"A1", "A2"})
	require.NoError(t, err)
	assert.Equal(t, "FREE", string(statuses["A1"]))
	assert.Equal(t, "FREE", string(statuses["A2"]))

	// Second cancel reports the conflict instead of succeeding silently.
	rr = executeRequest(t, app, http.MethodDelete, "/v1/bookings/"+booking.ID, nil)
	require.Equal(t, http.StatusConflict, rr.Code)

	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "The booking is already cancelled", resp.Message)

	rr = executeRequest(t, app, http.MethodDelete, "/v1/bookings/b404", nil)
	checkErrorResponse(t, rr, http.StatusNotFound, "The requested resource not found")
}

func TestGetUserBookingsHandler(t *testing.T) {
	app, _ := newTestApplication(t)

	mustBook(t, app, "u1", "S1", []string{"A1"})
	mustBook(t, app, "u1", "S1", []string{"A2"})
	mustBook(t, app, "u2", "S1", []string{"A3"})

	tests := []struct {
		name         string
		url          string
		wantStatus   int
		wantCount    int
		wantTotal    int
		wantLastPage int
	}{
		{
			name:         "default pagination",
			url:          "/v1/users/u1/bookings",
			wantStatus:   http.StatusOK,
			wantCount:    2,
			wantTotal:    2,
			wantLastPage: 1,
		},
		{
			name:         "explicit page size",
			url:          "/v1/users/u1/bookings?page=1&pageSize=1",
			wantStatus:   http.StatusOK,
			wantCount:    1,
			wantTotal:    2,
			wantLastPage: 2,
		},
		{
			name:       "user without bookings gets an empty list",
			url:        "/v1/users/u404/bookings",
			wantStatus: http.StatusOK,
			wantCount:  0,
		},
		{
			name:       "page below one is rejected",
			url:        "/v1/users/u1/bookings?page=0",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "page size above the cap is rejected",
			url:        fmt.Sprintf("/v1/users/u1/bookings?pageSize=%d", MaxPageSize+1),
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := executeRequest(t, app, http.MethodGet, tt.url, nil)

			require.Equal(t, tt.wantStatus, rr.Code)

			if tt.wantStatus != http.StatusOK {
				return
			}

			resp := decodeResponse[api.UserBookingsResponse](t, rr)

			assert.Len(t, resp.Bookings, tt.wantCount)
			assert.Equal(t, tt.wantTotal, resp.Metadata.TotalRecords)
			assert.Equal(t, tt.wantLastPage, resp.Metadata.LastPage)

			for _, summary := range resp.Bookings {
				assert.Equal(t, "Evening Premiere", summary.ShowName)
				assert.Equal(t, 1, summary.SeatCount)
			}
		})
	}
}

func TestGetShowBookingsHandler(t *testing.T) {
	app, _ := newTestApplication(t)

	first := mustBook(t, app, "u1", "S1", []string{"A1"})
	second := mustBook(t, app, "u2", "S1", []string{"A2", "A3"})

	rr := executeRequest(t, app, http.MethodDelete, "/v1/bookings/"+first.ID, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = executeRequest(t, app, http.MethodGet, "/v1/shows/S1/bookings", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decodeResponse[api.ShowBookingsResponse](t, rr)

	// Cancelled bookings stay in the listing with their terminal status.
	require.Len(t, resp.Bookings, 2)
	assert.Equal(t, first.ID, resp.Bookings[0].Id)
	assert.Equal(t, "CANCELLED", resp.Bookings[0].Status)
	assert.NotNil(t, resp.Bookings[0].CancelledAt)
	assert.Equal(t, second.ID, resp.Bookings[1].Id)
	assert.Equal(t, "CONFIRMED", resp.Bookings[1].Status)

	rr = executeRequest(t, app, http.MethodGet, "/v1/shows/S404/bookings", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
