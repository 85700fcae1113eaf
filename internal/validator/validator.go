package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var seatIdRgx = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("seat_id", validateSeatId)

	return validator
}

func validateSeatId(fl validator.FieldLevel) bool {
	return seatIdRgx.MatchString(fl.Field().String())
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", err.Param())
	case "max":
		return fmt.Sprintf("must contain at most %s item(s) or characters", err.Param())
	case "unique":
		return "must not contain duplicates"
	case "seat_id":
		return "must be a valid seat identifier"
	default:
		return "is invalid"
	}
}
