package errors

import "errors"

var (
	ErrNotFound = errors.New("customer not found")

	ErrEmailTaken = errors.New("customer email already in use")
)
