package hexview

import (
	"fmt"

	"github.com/joshuapare/hexkit/hexview/overlay"
	"github.com/joshuapare/hexkit/hexview/source"
)

// ID returns the session id assigned at construction.
func (c *Controller) ID() string { return c.id }

// Config returns the controller's configuration.
func (c *Controller) Config() Config { return c.cfg }

// State returns the current load state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the failure that put the controller in StateError, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateError {
		return nil
	}
	return c.err
}

// Ref returns the open file reference.
func (c *Controller) Ref() source.Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ref
}

// TotalSize returns the file size reported by the first load, 0 before it.
func (c *Controller) TotalSize() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Base returns the window's anchor address.
func (c *Controller) Base() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.win.Base()
}

// Len returns the number of loaded bytes.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.win.Len()
}

// End returns the address one past the last loaded byte.
func (c *Controller) End() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.win.End()
}

// Modified returns the number of pending edits.
func (c *Controller) Modified() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ov.Count()
}

// ModifiedRanges returns pending edits coalesced into contiguous spans.
func (c *Controller) ModifiedRanges() []overlay.Range {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ov.Ranges()
}

// IsModified reports whether addr has a pending edit.
func (c *Controller) IsModified(addr int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ov.Get(addr)
	return ok
}

// CanSave reports whether Save has anything to write.
func (c *Controller) CanSave() bool { return c.Modified() > 0 }

// CanReset reports whether ResetEdits has anything to clear.
func (c *Controller) CanReset() bool { return c.Modified() > 0 }

// NeedsMore reports whether bytes remain past the window.
func (c *Controller) NeedsMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened && c.win.End() < c.total
}

// Status returns the modification summary shown next to the save controls.
func (c *Controller) Status() string {
	n := c.Modified()
	if n == 0 {
		return "No modifications"
	}
	return fmt.Sprintf("%d byte(s) modified", n)
}
