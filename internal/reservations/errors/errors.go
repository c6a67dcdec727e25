package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrCustomerNotFound = errors.New("reservation references a missing customer")
	ErrLocationNotFound = errors.New("reservation references a missing location")
)
