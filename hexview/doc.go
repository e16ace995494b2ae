// Package hexview views and edits the raw bytes of large files without
// loading them whole.
//
// A Controller owns one viewing session. It pulls fixed-size pages from a
// source.Source into a contiguous window, keeps pending byte edits in a
// sparse overlay keyed by absolute file address, searches the loaded bytes,
// and exports an edited copy. The source file is never modified.
//
// # Loading
//
// Open fetches the first page. LoadMore appends the next page and is meant
// to be called whenever the user scrolls near the bottom; only one LoadMore
// runs at a time and extra calls return immediately. Goto discards the
// window and reloads it at the target address rounded down to a row
// boundary:
//
//	ctl, err := hexview.New(src, hexview.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	if err := ctl.Open(ctx, "evidence/disk.img"); err != nil {
//	    return err
//	}
//	for ctl.NeedsMore() && ctl.Len() < 4096 {
//	    if _, err := ctl.LoadMore(ctx); err != nil {
//	        return err
//	    }
//	}
//
// A load that finishes after a later Open, Goto or ResetEdits replaced the
// window is dropped.
//
// # Editing
//
// EditByte takes the text the user typed, one or two hex digits. Invalid
// text is rejected with ErrInvalidEditInput and the returned EditResult
// holds the value to revert the display to. EditSession models the typing
// itself (begin, type, backspace, commit, cancel) as a pure value for UIs
// that edit in place.
//
// Edits are addressed by file offset, so they survive scrolling and Goto.
// Reads, rows and search all see them.
//
// # Search
//
// Search parses a hex pattern such as "FF D8 FF" and scans only the loaded
// window. Matches do not overlap. NextMatch and PrevMatch wrap around. Any
// change to the window invalidates the matches.
//
// # Saving
//
// Save refetches the whole file, applies the overlay and returns the bytes
// with a suggested name of "modified_<name>". Save does not clear edits.
// ExportTo streams the same result in chunks for files too big to buffer.
package hexview
