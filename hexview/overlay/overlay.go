package overlay

import (
	"cmp"
	"fmt"
	"slices"
)

// Range is a contiguous run of edited addresses.
type Range struct {
	Off int64 // Absolute offset in file
	Len int64 // Number of edited bytes
}

// End returns the address one past the range.
func (r Range) End() int64 { return r.Off + r.Len }

// Overlay holds pending edits keyed by absolute address.
type Overlay struct {
	edits map[int64]byte
	limit int
}

// New creates an overlay. A limit of 0 means unbounded.
func New(limit int) *Overlay {
	return &Overlay{
		edits: make(map[int64]byte),
		limit: limit,
	}
}

// Set stores value at addr, replacing any previous edit.
func (o *Overlay) Set(addr int64, value int) error {
	if value < 0 || value > 0xFF {
		return fmt.Errorf("%w: %d", ErrInvalidValue, value)
	}
	if addr < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAddress, addr)
	}
	if _, exists := o.edits[addr]; !exists && o.limit > 0 && len(o.edits) >= o.limit {
		return fmt.Errorf("%w (%d)", ErrFull, o.limit)
	}
	o.edits[addr] = byte(value)
	return nil
}

// Get returns the pending value at addr, if any.
func (o *Overlay) Get(addr int64) (byte, bool) {
	v, ok := o.edits[addr]
	return v, ok
}

// Delete drops the edit at addr. Missing addresses are ignored.
func (o *Overlay) Delete(addr int64) {
	delete(o.edits, addr)
}

// Clear drops every pending edit.
func (o *Overlay) Clear() {
	clear(o.edits)
}

// Count returns the number of pending edits.
func (o *Overlay) Count() int {
	return len(o.edits)
}

// Addresses returns edited addresses in ascending order.
func (o *Overlay) Addresses() []int64 {
	addrs := make([]int64, 0, len(o.edits))
	for a := range o.edits {
		addrs = append(addrs, a)
	}
	slices.Sort(addrs)
	return addrs
}

// Each calls fn for every edit in ascending address order. Iteration stops
// when fn returns false.
func (o *Overlay) Each(fn func(addr int64, value byte) bool) {
	for _, a := range o.Addresses() {
		if !fn(a, o.edits[a]) {
			return
		}
	}
}

// Ranges returns edited addresses coalesced into sorted, non-overlapping,
// non-adjacent spans.
func (o *Overlay) Ranges() []Range {
	addrs := o.Addresses()
	if len(addrs) == 0 {
		return nil
	}

	merged := make([]Range, 0, 8)
	current := Range{Off: addrs[0], Len: 1}
	for _, a := range addrs[1:] {
		if a == current.End() {
			current.Len++
			continue
		}
		merged = append(merged, current)
		current = Range{Off: a, Len: 1}
	}
	// Don't forget the last range
	merged = append(merged, current)
	return merged
}

// Within returns the edits whose address lies in [start, end), in ascending
// order. Streaming export uses it to patch one chunk at a time.
func (o *Overlay) Within(start, end int64) []Edit {
	var out []Edit
	for a, v := range o.edits {
		if a >= start && a < end {
			out = append(out, Edit{Addr: a, Value: v})
		}
	}
	slices.SortFunc(out, func(x, y Edit) int { return cmp.Compare(x.Addr, y.Addr) })
	return out
}

// Edit is one pending replacement.
type Edit struct {
	Addr  int64
	Value byte
}

// Clone returns an independent copy of the overlay.
func (o *Overlay) Clone() *Overlay {
	c := &Overlay{edits: make(map[int64]byte, len(o.edits)), limit: o.limit}
	for a, v := range o.edits {
		c.edits[a] = v
	}
	return c
}
