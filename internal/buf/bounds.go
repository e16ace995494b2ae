// Package buf holds overflow-safe bounds helpers shared by the range source
// implementations and the range server.
package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int64.
func AddOverflowSafe(a, b int64) (int64, bool) {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return 0, false
	case b < 0 && a < math.MinInt64-b:
		return 0, false
	default:
		return a + b, true
	}
}

// ClampRange validates a read of length bytes at off against a file of size
// total and returns the half-open window [start, end) that can actually be
// served. Reads starting at or past the end yield an empty window at total.
//
//	start, end, err := buf.ClampRange(size, req.Offset, req.Length)
//	if err != nil {
//	    return fmt.Errorf("range: %w", err)
//	}
//	data := mapped[start:end]
func ClampRange(total, off, length int64) (int64, int64, error) {
	if total < 0 {
		return 0, 0, fmt.Errorf("negative size: %d", total)
	}
	if off < 0 {
		return 0, 0, fmt.Errorf("negative offset: %d", off)
	}
	if length < 0 {
		return 0, 0, fmt.Errorf("negative length: %d", length)
	}
	if off >= total {
		return total, total, nil
	}
	end, ok := AddOverflowSafe(off, length)
	if !ok || end > total {
		end = total
	}
	return off, end, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int64) ([]byte, bool) {
	if off < 0 || n < 0 || off > int64(len(b)) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > int64(len(b)) {
		return nil, false
	}
	return b[off:end], true
}
