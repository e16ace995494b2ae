package materialize

import "errors"

var (
	// ErrNothingToSave indicates an empty overlay; saving is a no-op.
	ErrNothingToSave = errors.New("materialize: no modifications to save")

	// ErrIncomplete indicates the source returned fewer bytes than the file holds.
	ErrIncomplete = errors.New("materialize: source returned a partial file")
)
