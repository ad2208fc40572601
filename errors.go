package sharedvar

import "errors"

var (
	// ErrTypeMismatch is returned when an operation finds a variable of a
	// different stored type and is not allowed to overwrite it.
	ErrTypeMismatch = errors.New("sharedvar: types are different and cannot overwrite")

	// ErrMissingVar is returned when an operation requires an existing
	// variable and the key is absent.
	ErrMissingVar = errors.New("sharedvar: variable does not exist")
)
