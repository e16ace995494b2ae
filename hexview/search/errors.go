package search

import "errors"

var (
	// ErrEmptyPattern indicates a blank search pattern.
	ErrEmptyPattern = errors.New("search: empty pattern")

	// ErrInvalidPattern indicates characters outside 0-9, A-F.
	ErrInvalidPattern = errors.New("search: pattern must be hex digits 0-9, A-F")

	// ErrOddPattern indicates a pattern that is not whole byte pairs.
	ErrOddPattern = errors.New("search: pattern must have an even number of hex digits")
)
