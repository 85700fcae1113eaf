package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/seatwise/booking-engine/api"
	"github.com/seatwise/booking-engine/internal/domain"
)

func (app *Application) GetShowSeatsHandler(w http.ResponseWriter, r *http.Request) {
	showID := chi.URLParam(r, "showID")

	show, statuses, err := app.coordinator.Availability(r.Context(), showID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	resp := toSeatMapResponse(show, statuses)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toSeatMapResponse(show *domain.Show, statuses map[string]domain.SeatStatus) api.SeatMapResponse {
	// Seats follow the show's layout order so the presentation layer can
	// render them without re-sorting.
	seats := make([]api.Seat, 0, len(show.Layout))

	for _, seatID := range show.Layout {
		seats = append(seats, api.Seat{
			Id:        seatID,
			Available: statuses[seatID] == domain.SeatFree,
		})
	}

	return api.SeatMapResponse{
		ShowId:   show.ID,
		ShowName: show.Name,
		Seats:    seats,
	}
}
