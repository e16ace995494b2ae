package search

// Result is the outcome of one search invocation.
type Result struct {
	Pattern []byte
	Matches []Match
}

// Empty reports a search that ran successfully and found nothing.
func (r Result) Empty() bool { return len(r.Matches) == 0 }

// Count returns the number of matches.
func (r Result) Count() int { return len(r.Matches) }

// Cursor walks a match set cyclically in discovery order.
type Cursor struct {
	result Result
	idx    int
}

// NewCursor positions a cursor on the first match, or nowhere if the
// result is empty.
func NewCursor(r Result) *Cursor {
	c := &Cursor{result: r, idx: -1}
	if !r.Empty() {
		c.idx = 0
	}
	return c
}

// Result returns the match set the cursor walks.
func (c *Cursor) Result() Result { return c.result }

// Len returns the number of matches.
func (c *Cursor) Len() int { return len(c.result.Matches) }

// Index returns the current position, -1 when there are no matches.
func (c *Cursor) Index() int { return c.idx }

// Current returns the match under the cursor.
func (c *Cursor) Current() (Match, bool) {
	if c.idx < 0 {
		return Match{}, false
	}
	return c.result.Matches[c.idx], true
}

// Next advances, wrapping from the last match to the first.
func (c *Cursor) Next() (Match, bool) {
	n := c.Len()
	if n == 0 {
		return Match{}, false
	}
	c.idx = (c.idx + 1) % n
	return c.result.Matches[c.idx], true
}

// Prev steps back, wrapping from the first match to the last.
func (c *Cursor) Prev() (Match, bool) {
	n := c.Len()
	if n == 0 {
		return Match{}, false
	}
	c.idx = (c.idx - 1 + n) % n
	return c.result.Matches[c.idx], true
}

// Covers reports whether view index i lies in any match, and whether that
// match is the current one.
func (c *Cursor) Covers(i int) (hit, current bool) {
	for j, m := range c.result.Matches {
		if m.Start > i {
			break
		}
		if m.Contains(i) {
			return true, j == c.idx
		}
	}
	return false, false
}
