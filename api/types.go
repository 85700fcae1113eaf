// Package api holds the request and response types of the HTTP surface.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ConflictResponse struct {
	Message   string    `json:"message"`
	Seats     []string  `json:"seats,omitempty"`
	RequestId string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validation_errors"`
	RequestId        string            `json:"request_id,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

type CreateBookingRequest struct {
	UserId  string   `json:"user_id" validate:"required,max=64"`
	SeatIds []string `json:"seat_ids" validate:"required,min=1,max=50,unique,dive,required,seat_id,max=16"`
}

type Booking struct {
	Id          string          `json:"id"`
	UserId      string          `json:"user_id"`
	ShowId      string          `json:"show_id"`
	Seats       []string        `json:"seats"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
}

type BookingResponse struct {
	Booking Booking `json:"booking"`
}

type Seat struct {
	Id        string `json:"id"`
	Available bool   `json:"available"`
}

type SeatMapResponse struct {
	ShowId   string `json:"show_id"`
	ShowName string `json:"show_name"`
	Seats    []Seat `json:"seats"`
}

type BookingSummary struct {
	Id         string          `json:"id"`
	ShowId     string          `json:"show_id"`
	ShowName   string          `json:"show_name"`
	SeatCount  int             `json:"seat_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

type Metadata struct {
	CurrentPage  int `json:"current_page"`
	PageSize     int `json:"page_size"`
	FirstPage    int `json:"first_page"`
	LastPage     int `json:"last_page"`
	TotalRecords int `json:"total_records"`
}

type UserBookingsResponse struct {
	Bookings []BookingSummary `json:"bookings"`
	Metadata Metadata         `json:"metadata"`
}

type ShowBookingsResponse struct {
	Bookings []Booking `json:"bookings"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"system_info"`
}
