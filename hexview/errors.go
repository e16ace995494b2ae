package hexview

import (
	"errors"

	"github.com/joshuapare/hexkit/hexview/materialize"
)

var (
	// ErrSourceUnavailable indicates the range source failed. The controller
	// moves to StateError; nothing is retried automatically.
	ErrSourceUnavailable = errors.New("hexview: source unavailable")

	// ErrInvalidAddress indicates an address outside [0, total size).
	ErrInvalidAddress = errors.New("hexview: invalid address")

	// ErrInvalidEditInput indicates edit text that is not 1-2 hex digits.
	ErrInvalidEditInput = errors.New("hexview: edit must be 1-2 hex digits")

	// ErrNothingToReset indicates ResetEdits on an empty overlay.
	ErrNothingToReset = errors.New("hexview: no modifications to reset")

	// ErrNothingToSave indicates Save on an empty overlay.
	ErrNothingToSave = materialize.ErrNothingToSave

	// ErrNotLoaded indicates a read of an address that is neither loaded nor
	// edited. The presentation layer should never ask for one.
	ErrNotLoaded = errors.New("hexview: address not loaded")

	// ErrNotOpen indicates an operation before a successful Open.
	ErrNotOpen = errors.New("hexview: no file open")

	// ErrSuperseded indicates a load whose result was dropped because a later
	// Open, Goto or ResetEdits replaced the window first.
	ErrSuperseded = errors.New("hexview: load superseded")

	// ErrInvalidConfig indicates unusable view geometry.
	ErrInvalidConfig = errors.New("hexview: invalid config")
)

// IsNoop reports whether err is a user-level no-op (nothing to reset or
// save) rather than a failure.
func IsNoop(err error) bool {
	return errors.Is(err, ErrNothingToReset) || errors.Is(err, ErrNothingToSave)
}
