package overlay

import "errors"

var (
	// ErrInvalidValue indicates a replacement value outside 0..255.
	ErrInvalidValue = errors.New("overlay: value out of byte range")

	// ErrInvalidAddress indicates a negative address.
	ErrInvalidAddress = errors.New("overlay: invalid address")

	// ErrFull indicates the configured edit limit was reached.
	ErrFull = errors.New("overlay: edit limit reached")
)
