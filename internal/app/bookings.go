package app

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/seatwise/booking-engine/api"
	"github.com/seatwise/booking-engine/internal/domain"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func (app *Application) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	showID := chi.URLParam(r, "showID")

	var input api.CreateBookingRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	booking, err := app.coordinator.Book(r.Context(), domain.BookingRequest{
		UserID:  input.UserId,
		ShowID:  showID,
		SeatIDs: input.SeatIds,
	})

	if err != nil {
		var unavailableErr *domain.SeatsUnavailableError
		if errors.As(err, &unavailableErr) {
			logger.Warn("booking conflict", "show_id", showID, "conflicting_seats", unavailableErr.Seats)
		}

		app.domainErrorResponse(w, r, err)
		return
	}

	logger.Info("booking confirmed",
		"booking_id", booking.ID,
		"show_id", showID,
		"seat_count", len(booking.Seats),
	)

	resp := api.BookingResponse{
		Booking: toApiBooking(booking),
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	bookingID := chi.URLParam(r, "bookingID")

	err := app.coordinator.Cancel(r.Context(), bookingID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	logger.Info("booking cancelled", "booking_id", bookingID)

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) GetBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")

	booking, err := app.coordinator.GetBooking(r.Context(), bookingID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	resp := api.BookingResponse{
		Booking: toApiBooking(booking),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetUserBookingsHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	pagination := domain.Pagination{
		Page:     app.readIntQuery(r, "page", DefaultPage),
		PageSize: app.readIntQuery(r, "pageSize", DefaultPageSize),
	}

	if pagination.Page < 1 || pagination.PageSize < 1 || pagination.PageSize > MaxPageSize {
		app.badRequestResponse(w, r, errors.New("invalid pagination parameters"))
		return
	}

	summaries, metadata, err := app.coordinator.ListUserBookings(r.Context(), userID, pagination)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	resp := api.UserBookingsResponse{
		Bookings: toApiBookingSummaries(summaries),
		Metadata: toApiMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetShowBookingsHandler(w http.ResponseWriter, r *http.Request) {
	showID := chi.URLParam(r, "showID")

	bookings, err := app.coordinator.ListShowBookings(r.Context(), showID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	apiBookings := make([]api.Booking, len(bookings))
	for i := range bookings {
		apiBookings[i] = toApiBooking(&bookings[i])
	}

	resp := api.ShowBookingsResponse{
		Bookings: apiBookings,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toApiBooking(booking *domain.Booking) api.Booking {
	return api.Booking{
		Id:          booking.ID,
		UserId:      booking.UserID,
		ShowId:      booking.ShowID,
		Seats:       booking.Seats,
		TotalPrice:  booking.TotalPrice,
		Status:      string(booking.Status),
		CreatedAt:   booking.CreatedAt,
		CancelledAt: booking.CancelledAt,
	}
}

func toApiBookingSummaries(summaries []domain.BookingSummary) []api.BookingSummary {
	apiSummaries := make([]api.BookingSummary, len(summaries))

	for i, v := range summaries {
		apiSummaries[i] = api.BookingSummary{
			Id:         v.BookingID,
			ShowId:     v.ShowID,
			ShowName:   v.ShowName,
			SeatCount:  v.SeatCount,
			TotalPrice: v.TotalPrice,
			Status:     string(v.Status),
			CreatedAt:  v.CreatedAt,
		}
	}

	return apiSummaries
}

func toApiMetadata(metadata *domain.Metadata) api.Metadata {
	if metadata == nil {
		return api.Metadata{}
	}

	return api.Metadata{
		CurrentPage:  metadata.CurrentPage,
		PageSize:     metadata.PageSize,
		FirstPage:    metadata.FirstPage,
		LastPage:     metadata.LastPage,
		TotalRecords: metadata.TotalRecords,
	}
}
