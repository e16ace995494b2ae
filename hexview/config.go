package hexview

import (
	"fmt"
	"io"
	"log/slog"
)

const (
	// DefaultBytesPerRow is the row width used for display and alignment.
	DefaultBytesPerRow = 16

	// DefaultRowsPerPage is the number of rows fetched per load (512 bytes).
	DefaultRowsPerPage = 32
)

// Config holds view geometry and collaborators.
type Config struct {
	BytesPerRow  int          // row width; goto alignment uses it
	RowsPerPage  int          // rows per fetch
	OverlayLimit int          // max pending edits, 0 = unbounded
	Logger       *slog.Logger // nil discards
}

// DefaultConfig returns 16-byte rows and 32-row pages.
func DefaultConfig() Config {
	return Config{
		BytesPerRow: DefaultBytesPerRow,
		RowsPerPage: DefaultRowsPerPage,
	}
}

// PageBytes returns the fetch length of one page.
func (c Config) PageBytes() int64 {
	return int64(c.BytesPerRow) * int64(c.RowsPerPage)
}

// Validate checks the geometry.
func (c Config) Validate() error {
	if c.BytesPerRow <= 0 {
		return fmt.Errorf("%w: bytes per row must be positive, got %d", ErrInvalidConfig, c.BytesPerRow)
	}
	if c.RowsPerPage <= 0 {
		return fmt.Errorf("%w: rows per page must be positive, got %d", ErrInvalidConfig, c.RowsPerPage)
	}
	if c.OverlayLimit < 0 {
		return fmt.Errorf("%w: overlay limit must not be negative, got %d", ErrInvalidConfig, c.OverlayLimit)
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
