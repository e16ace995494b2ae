package window

import "errors"

var (
	// ErrOutOfOrderPage indicates a page that does not start at the window tail.
	ErrOutOfOrderPage = errors.New("window: page does not continue the window")

	// ErrOutOfRange indicates an address outside the materialized window.
	ErrOutOfRange = errors.New("window: address outside materialized range")

	// ErrMisaligned indicates a reset anchor that is not row aligned.
	ErrMisaligned = errors.New("window: anchor not aligned to row width")
)
