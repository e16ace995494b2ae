package hexview

import (
	"strings"
	"unicode"

	"github.com/joshuapare/hexkit/internal/hexfmt"
)

// EditMode is the state of an EditSession.
type EditMode int

const (
	Viewing EditMode = iota
	Editing
)

func (m EditMode) String() string {
	if m == Editing {
		return "editing"
	}
	return "viewing"
}

// maxDraft is the number of hex digits a byte takes.
const maxDraft = 2

// EditSession models an in-progress byte edit. It is a value type: every
// transition returns the next session and leaves the receiver alone, so the
// presentation layer can hold it in its own model and hand the committed
// draft to Controller.EditByte.
type EditSession struct {
	Mode     EditMode
	Address  int64
	Draft    string
	Original byte
}

// Begin starts editing addr, whose effective value is current.
func (s EditSession) Begin(addr int64, current byte) EditSession {
	return EditSession{Mode: Editing, Address: addr, Original: current}
}

// Type appends r to the draft. Control characters and input past two
// characters are ignored. Non-hex printable input is kept so the controller
// can reject it and the caller can show the revert.
func (s EditSession) Type(r rune) EditSession {
	if s.Mode != Editing || len(s.Draft) >= maxDraft || !unicode.IsPrint(r) || r > unicode.MaxASCII {
		return s
	}
	s.Draft += strings.ToUpper(string(r))
	return s
}

// Backspace removes the last draft character.
func (s EditSession) Backspace() EditSession {
	if s.Mode != Editing || s.Draft == "" {
		return s
	}
	s.Draft = s.Draft[:len(s.Draft)-1]
	return s
}

// Full reports whether the draft holds a complete byte.
func (s EditSession) Full() bool {
	return s.Mode == Editing && len(s.Draft) == maxDraft
}

// Cancel abandons the edit.
func (s EditSession) Cancel() EditSession {
	return EditSession{}
}

// Commit ends the edit and returns the address and draft to apply. ok is
// false when there was nothing to commit.
func (s EditSession) Commit() (next EditSession, addr int64, draft string, ok bool) {
	if s.Mode != Editing || s.Draft == "" {
		return EditSession{}, 0, "", false
	}
	return EditSession{}, s.Address, s.Draft, true
}

// Display returns the text to show in the cell being edited: the draft
// while typing, else the original value.
func (s EditSession) Display() string {
	if s.Mode == Editing && s.Draft != "" {
		return s.Draft
	}
	return hexfmt.Byte(s.Original)
}

// Commit applies a session's draft through EditByte. Empty or cancelled
// sessions are a no-op. On invalid input the returned result carries the
// pre-edit value to display.
func (c *Controller) Commit(s EditSession) (EditResult, EditSession, error) {
	next, addr, draft, ok := s.Commit()
	if !ok {
		return EditResult{Address: s.Address, Value: s.Original, Previous: s.Original}, next, nil
	}
	res, err := c.EditByte(addr, draft)
	return res, next, err
}
