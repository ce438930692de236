package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator for the request DTOs in this package.
// Monetary consistency is deliberately NOT validated here: the order service
// recomputes all totals server-side and ignores the client's claim, so a
// lying total is not a validation failure.
func New() *validatorv10.Validate {
	return validatorv10.New()
}
