// Package search locates byte patterns within the materialized window.
//
// Search is scoped to what is loaded: the file is never fully resident, so
// a scan only claims completeness for the bytes it was handed. Matches are
// indices into that view, not file addresses; the caller adds the window
// base when it needs an address.
package search

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// ByteView is an indexable run of effective bytes, typically the loaded
// window with pending edits applied.
type ByteView interface {
	Len() int
	At(i int) byte
}

// Bytes adapts a plain slice to ByteView.
type Bytes []byte

// Len implements ByteView.
func (b Bytes) Len() int { return len(b) }

// At implements ByteView.
func (b Bytes) At(i int) byte { return b[i] }

// Match is one occurrence of the pattern.
type Match struct {
	Start  int // index into the scanned view
	Length int
}

// End returns the index one past the match.
func (m Match) End() int { return m.Start + m.Length }

// Contains reports whether view index i is covered by the match.
func (m Match) Contains(i int) bool { return i >= m.Start && i < m.End() }

// ParsePattern decodes user input such as "FF D8", "ffd8" or "0xFFD8".
func ParsePattern(input string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, input)
	cleaned = strings.TrimPrefix(cleaned, "0X")

	if cleaned == "" {
		return nil, ErrEmptyPattern
	}
	for _, r := range cleaned {
		if !isHexDigit(r) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, input)
		}
	}
	if len(cleaned)%2 != 0 {
		return nil, fmt.Errorf("%w: %q", ErrOddPattern, input)
	}
	return hex.DecodeString(cleaned)
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F')
}

// Scan finds non-overlapping occurrences of pattern in v, left to right.
//
// A match consumes its span: the cursor jumps to the end of a hit, so
// "FFD8FFD8" searched for "FFD8" yields starts 0 and 2, never the shifted
// alignment at 1.
func Scan(v ByteView, pattern []byte) []Match {
	k := len(pattern)
	n := v.Len()
	if k == 0 || n < k {
		return nil
	}

	var matches []Match
	i := 0
	for i <= n-k {
		if v.At(i) == pattern[0] && matchAt(v, i, pattern) {
			matches = append(matches, Match{Start: i, Length: k})
			i += k
			continue
		}
		i++
	}
	return matches
}

func matchAt(v ByteView, i int, pattern []byte) bool {
	for j := 1; j < len(pattern); j++ {
		if v.At(i+j) != pattern[j] {
			return false
		}
	}
	return true
}
