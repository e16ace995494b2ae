package source

import "errors"

var (
	// ErrNotFound indicates the referenced file does not exist.
	ErrNotFound = errors.New("source: file not found")

	// ErrInvalidRange indicates a negative offset or length.
	ErrInvalidRange = errors.New("source: invalid range")

	// ErrBadResponse indicates a reply that violates the range contract.
	ErrBadResponse = errors.New("source: malformed response")

	// ErrClosed indicates use of a closed source.
	ErrClosed = errors.New("source: closed")
)
