// Package overlay tracks pending, uncommitted byte edits.
//
// # Overview
//
// An Overlay is a sparse map from absolute file address to replacement
// value. It never touches the underlying bytes: readers consult the overlay
// first and fall back to the loaded window or source. Because entries are
// keyed by absolute offset, they survive window resets, scrolling and goto.
//
// # Usage
//
//	ov := overlay.New(0) // unbounded
//	_ = ov.Set(0x1F, 0xAA)
//	if v, ok := ov.Get(0x1F); ok {
//	    // render v as modified
//	}
//
// # Ranges
//
// Ranges coalesces edited addresses into sorted contiguous spans:
//
//	Edited: [3, 4, 5, 9, 10] -> Ranges: [{3,3}, {9,2}]
//
// The export path and status displays use these spans instead of walking
// every address.
//
// # Thread Safety
//
// Overlay instances are not thread-safe. The owning controller serializes
// access.
package overlay
