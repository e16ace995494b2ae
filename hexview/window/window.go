// Package window holds the contiguous, append-only run of file bytes that is
// currently materialized for display.
//
// A Window is anchored at a base offset. It grows only by appending a page
// that starts exactly at its tail, or it is replaced wholesale by Reset.
// Those two rules keep the pages contiguous and strictly increasing with no
// gaps or overlap, so a window index i always maps to file address Base()+i.
//
// Window is not safe for concurrent use; the owning controller serializes
// access.
package window

import "fmt"

// Page is one fetched byte range.
type Page struct {
	Offset int64
	Data   []byte
}

// End returns the address one past the last byte of the page.
func (p Page) End() int64 {
	return p.Offset + int64(len(p.Data))
}

// Window is the concatenation of pages loaded since the last reset. Bytes
// are stored once, in data; ends records where each page stops in it.
type Window struct {
	base int64
	data []byte
	ends []int
	gen  uint64
}

// New returns an empty window anchored at 0.
func New() *Window {
	return &Window{}
}

// AlignDown rounds addr down to the nearest multiple of rowWidth.
func AlignDown(addr int64, rowWidth int) int64 {
	if rowWidth <= 0 {
		return addr
	}
	if addr <= 0 {
		return 0
	}
	return addr - addr%int64(rowWidth)
}

// Reset discards all pages and anchors the window at anchor.
//
// The anchor must already be row aligned; callers round with AlignDown.
// A rowWidth of 0 skips the alignment check.
func (w *Window) Reset(anchor int64, rowWidth int) error {
	if anchor < 0 {
		return fmt.Errorf("%w: negative anchor %d", ErrOutOfRange, anchor)
	}
	if rowWidth > 0 && anchor%int64(rowWidth) != 0 {
		return fmt.Errorf("%w: %#x (row width %d)", ErrMisaligned, anchor, rowWidth)
	}
	w.base = anchor
	w.data = nil
	w.ends = nil
	w.gen++
	return nil
}

// Append adds p at the tail of the window.
func (w *Window) Append(p Page) error {
	if p.Offset != w.End() {
		return fmt.Errorf("%w: got offset %#x, want %#x", ErrOutOfOrderPage, p.Offset, w.End())
	}
	if len(p.Data) == 0 {
		return nil
	}
	// append copies, so sources may reuse their buffers.
	w.data = append(w.data, p.Data...)
	w.ends = append(w.ends, len(w.data))
	w.gen++
	return nil
}

// ByteAt returns the stored byte at absolute address addr.
func (w *Window) ByteAt(addr int64) (byte, error) {
	if !w.Contains(addr) {
		return 0, fmt.Errorf("%w: %#x not in [%#x,%#x)", ErrOutOfRange, addr, w.base, w.End())
	}
	return w.data[addr-w.base], nil
}

// Contains reports whether addr is materialized.
func (w *Window) Contains(addr int64) bool {
	return addr >= w.base && addr < w.End()
}

// Base returns the anchor offset.
func (w *Window) Base() int64 { return w.base }

// Len returns the number of materialized bytes.
func (w *Window) Len() int { return len(w.data) }

// End returns the address one past the last materialized byte.
func (w *Window) End() int64 { return w.base + int64(len(w.data)) }

// Bytes returns the materialized bytes. The slice is read-only and is
// invalidated by the next Reset or Append.
func (w *Window) Bytes() []byte { return w.data }

// Pages returns the pages in offset order. Page data are read-only views
// into Bytes, not copies.
func (w *Window) Pages() []Page {
	out := make([]Page, 0, len(w.ends))
	start := 0
	for _, end := range w.ends {
		out = append(out, Page{Offset: w.base + int64(start), Data: w.data[start:end:end]})
		start = end
	}
	return out
}

// Generation changes on every mutation. Holders of window indices (search
// matches, row views) compare it to detect that their indices went stale.
func (w *Window) Generation() uint64 { return w.gen }
