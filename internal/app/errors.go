package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/seatwise/booking-engine/api"
	"github.com/seatwise/booking-engine/internal/domain"
	appvalidator "github.com/seatwise/booking-engine/internal/validator"
)

const (
	ErrInternalServer     = "The server encountered a problem and could not process your request"
	ErrStorageUnavailable = "The service is temporarily unavailable, please retry"
)

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := api.ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	app.notFoundResponse(w, r)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "The requested resource not found"
	app.errorResponse(w, r, http.StatusNotFound, message)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) unavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusServiceUnavailable, ErrStorageUnavailable)
}

func (app *Application) conflictResponse(w http.ResponseWriter, r *http.Request, message string, seats []string) {
	resp := api.ConflictResponse{
		Message:   message,
		Seats:     seats,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, http.StatusConflict, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		app.serverErrorResponse(w, r, err)
		return
	}

	apiErrors := make([]api.ValidationError, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		apiErrors = append(apiErrors, api.ValidationError{
			Field: fieldError.Field(),
			Issue: appvalidator.ValidationMessage(fieldError),
		})
	}

	resp := api.ValidationErrorResponse{
		Message:          "The request contains invalid fields",
		ValidationErrors: apiErrors,
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
	}

	writeErr := app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if writeErr != nil {
		app.logError(r, writeErr)
		w.WriteHeader(500)
	}
}

// domainErrorResponse maps core errors to HTTP responses in one place so
// every handler reports the taxonomy consistently.
func (app *Application) domainErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidErr     *domain.InvalidRequestError
		unavailableErr *domain.SeatsUnavailableError
		compErr        *domain.CompensationError
	)

	switch {
	case errors.As(err, &invalidErr):
		app.badRequestResponse(w, r, invalidErr)

	case errors.As(err, &unavailableErr):
		app.conflictResponse(w, r, "Some of the selected seats are already booked", unavailableErr.Seats)

	case errors.Is(err, domain.ErrShowNotFound),
		errors.Is(err, domain.ErrSeatNotFound),
		errors.Is(err, domain.ErrBookingNotFound):
		app.notFoundResponse(w, r)

	case errors.Is(err, domain.ErrAlreadyCancelled):
		app.conflictResponse(w, r, "The booking is already cancelled", nil)

	case errors.Is(err, domain.ErrStorageUnavailable):
		app.unavailableResponse(w, r, err)

	case errors.As(err, &compErr):
		// Already logged with full context by the coordinator.
		app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)

	default:
		app.serverErrorResponse(w, r, err)
	}
}
