package hexview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/joshuapare/hexkit/hexview/materialize"
	"github.com/joshuapare/hexkit/hexview/overlay"
	"github.com/joshuapare/hexkit/hexview/search"
	"github.com/joshuapare/hexkit/hexview/source"
	"github.com/joshuapare/hexkit/hexview/window"
)

// State is the controller's load state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

var editInput = regexp.MustCompile(`^[0-9A-Fa-f]{1,2}$`)

// Controller owns one viewing session: a page window, an edit overlay and
// the current search. It is safe for concurrent use; source calls run
// without holding the lock so the presentation layer stays responsive.
type Controller struct {
	id  string
	src source.Source
	cfg Config
	log *slog.Logger

	// loads is the single-flight latch for LoadMore. Triggers that find it
	// held are dropped, not queued.
	loads *semaphore.Weighted

	mu     sync.Mutex
	ref    source.Ref
	opened bool
	total  int64
	win    *window.Window
	ov     *overlay.Overlay
	state  State
	err    error
	// epoch advances whenever Open, Goto or ResetEdits replaces the window.
	// A response carrying an older epoch is stale and dropped.
	epoch     uint64
	cursor    *search.Cursor
	cursorGen uint64
}

// New creates an idle controller reading from src.
func New(src source.Source, cfg Config) (*Controller, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	return &Controller{
		id:    id,
		src:   src,
		cfg:   cfg,
		log:   cfg.logger().With("session", id),
		loads: semaphore.NewWeighted(1),
		win:   window.New(),
		ov:    overlay.New(cfg.OverlayLimit),
	}, nil
}

// Open starts a session on ref and loads the first page. Any previous
// session state, including pending edits, is discarded.
func (c *Controller) Open(ctx context.Context, ref source.Ref) error {
	c.mu.Lock()
	c.ref = ref
	c.opened = false
	c.total = 0
	c.ov.Clear()
	c.cursor = nil
	c.epoch++
	epoch := c.epoch
	c.state, c.err = StateLoading, nil
	c.mu.Unlock()

	c.log.Info("opening", "ref", ref)
	resp, err := c.fetch(ctx, ref, 0, c.cfg.PageBytes())

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.log.Debug("dropping superseded open", "ref", ref)
		return ErrSuperseded
	}
	if err != nil {
		return c.failLocked("open", err)
	}
	if err := c.replaceWindowLocked(0, resp.Data); err != nil {
		return c.failLocked("open", err)
	}
	c.total = resp.TotalSize
	c.opened = true
	c.state = StateReady
	c.log.Info("opened", "ref", ref, "size", c.total, "loaded", c.win.Len())
	return nil
}

// LoadMore appends the next page after the window. It reports whether a
// page was appended. It is a no-op when a load is already in flight, when the
// window already reaches the end of the file, or when a Goto replaced the
// window while the page was being fetched.
func (c *Controller) LoadMore(ctx context.Context) (bool, error) {
	if !c.loads.TryAcquire(1) {
		c.log.Debug("load in flight, dropping trigger")
		return false, nil
	}
	defer c.loads.Release(1)

	c.mu.Lock()
	if !c.opened {
		c.mu.Unlock()
		return false, ErrNotOpen
	}
	next := c.win.End()
	if next >= c.total {
		c.mu.Unlock()
		return false, nil
	}
	ref, epoch := c.ref, c.epoch
	c.state = StateLoading
	c.mu.Unlock()

	resp, err := c.fetch(ctx, ref, next, c.cfg.PageBytes())

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch || c.win.End() != next {
		c.log.Debug("dropping stale page", "offset", next)
		return false, nil
	}
	if err != nil {
		return false, c.failLocked("load more", err)
	}
	if err := c.win.Append(window.Page{Offset: next, Data: resp.Data}); err != nil {
		return false, c.failLocked("load more", err)
	}
	c.cursor = nil
	c.state = StateReady
	c.log.Debug("page appended", "offset", next, "bytes", len(resp.Data), "window", c.win.Len())
	return len(resp.Data) > 0, nil
}

// Goto replaces the window with a fresh page starting at addr rounded down
// to the row width. The previous window is discarded, not merged. Pending
// edits are kept.
func (c *Controller) Goto(ctx context.Context, addr int64) error {
	c.mu.Lock()
	if !c.opened {
		c.mu.Unlock()
		return ErrNotOpen
	}
	if addr < 0 || addr >= c.total {
		total := c.total
		c.mu.Unlock()
		return fmt.Errorf("%w: %#x not in [0, %#x)", ErrInvalidAddress, addr, total)
	}
	aligned := window.AlignDown(addr, c.cfg.BytesPerRow)
	ref := c.ref
	c.epoch++
	epoch := c.epoch
	c.state = StateLoading
	c.mu.Unlock()

	resp, err := c.fetch(ctx, ref, aligned, c.cfg.PageBytes())

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.log.Debug("dropping superseded goto", "addr", addr)
		return ErrSuperseded
	}
	if err != nil {
		return c.failLocked("goto", err)
	}
	if err := c.replaceWindowLocked(aligned, resp.Data); err != nil {
		return c.failLocked("goto", err)
	}
	c.state = StateReady
	c.log.Debug("goto", "addr", addr, "base", aligned)
	return nil
}

// ReadByte returns the effective byte at addr: the pending edit if there is
// one, else the loaded byte.
func (c *Controller) ReadByte(addr int64) (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readLocked(addr)
}

func (c *Controller) readLocked(addr int64) (byte, error) {
	if v, ok := c.ov.Get(addr); ok {
		return v, nil
	}
	if !c.win.Contains(addr) {
		return 0, fmt.Errorf("%w: %#x", ErrNotLoaded, addr)
	}
	return c.win.ByteAt(addr)
}

// EditResult describes the outcome of an edit.
type EditResult struct {
	Address  int64
	Value    byte // value to display after the edit
	Previous byte // effective value before the edit
	Changed  bool // overlay was written
}

// EditByte applies typed hex input to addr. Input that is not 1-2 hex
// digits is rejected with ErrInvalidEditInput; the result then carries the
// pre-edit value so the display can revert. A value equal to the current
// effective byte leaves the overlay untouched.
func (c *Controller) EditByte(addr int64, raw string) (EditResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opened {
		return EditResult{}, ErrNotOpen
	}
	if addr < 0 || addr >= c.total {
		return EditResult{}, fmt.Errorf("%w: %#x not in [0, %#x)", ErrInvalidAddress, addr, c.total)
	}
	prev, err := c.readLocked(addr)
	if err != nil {
		return EditResult{}, err
	}
	res := EditResult{Address: addr, Value: prev, Previous: prev}

	input := strings.TrimSpace(raw)
	if !editInput.MatchString(input) {
		return res, fmt.Errorf("%w: %q", ErrInvalidEditInput, raw)
	}
	v, _ := strconv.ParseUint(input, 16, 8)
	if byte(v) == prev {
		return res, nil
	}
	if err := c.ov.Set(addr, int(v)); err != nil {
		return res, err
	}
	res.Value = byte(v)
	res.Changed = true
	c.log.Debug("byte edited", "addr", addr, "from", prev, "to", v, "pending", c.ov.Count())
	return res, nil
}

// RevertByte drops the pending edit at addr, if any.
func (c *Controller) RevertByte(addr int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ov.Get(addr); !ok {
		return false
	}
	c.ov.Delete(addr)
	return true
}

// ResetEdits clears every pending edit and reloads the current window from
// the source so the displayed bytes match the cleared state.
func (c *Controller) ResetEdits(ctx context.Context) error {
	c.mu.Lock()
	if !c.opened {
		c.mu.Unlock()
		return ErrNotOpen
	}
	if c.ov.Count() == 0 {
		c.mu.Unlock()
		return ErrNothingToReset
	}
	cleared := c.ov.Count()
	c.ov.Clear()
	base := c.win.Base()
	length := int64(c.win.Len())
	if length == 0 {
		length = c.cfg.PageBytes()
	}
	ref := c.ref
	c.epoch++
	epoch := c.epoch
	c.state = StateLoading
	c.mu.Unlock()

	c.log.Info("edits reset", "cleared", cleared)
	resp, err := c.fetch(ctx, ref, base, length)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		// A later load owns the window now; the edits are gone either way.
		return nil
	}
	if err != nil {
		return c.failLocked("reset", err)
	}
	if err := c.replaceWindowLocked(base, resp.Data); err != nil {
		return c.failLocked("reset", err)
	}
	c.state = StateReady
	return nil
}

// Search scans the loaded window, with pending edits applied, for a hex
// pattern such as "FF D8". Only loaded bytes are searched. An empty result
// is not an error.
func (c *Controller) Search(pattern string) (search.Result, error) {
	p, err := search.ParsePattern(pattern)
	if err != nil {
		return search.Result{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opened {
		return search.Result{}, ErrNotOpen
	}
	res := search.Result{
		Pattern: p,
		Matches: search.Scan(effectiveView{win: c.win, ov: c.ov}, p),
	}
	c.cursor = search.NewCursor(res)
	c.cursorGen = c.win.Generation()
	c.log.Debug("search", "pattern", pattern, "matches", res.Count(), "scanned", c.win.Len())
	return res, nil
}

// Hit is a match resolved against the window it was found in.
type Hit struct {
	search.Match
	Address int64 // file address of the first matched byte
	Index   int   // position in the match set
	Count   int   // size of the match set
}

// NextMatch moves to the following match, wrapping to the first.
func (c *Controller) NextMatch() (Hit, bool) {
	return c.step((*search.Cursor).Next)
}

// PrevMatch moves to the preceding match, wrapping to the last.
func (c *Controller) PrevMatch() (Hit, bool) {
	return c.step((*search.Cursor).Prev)
}

// CurrentMatch returns the match under the search cursor.
func (c *Controller) CurrentMatch() (Hit, bool) {
	return c.step((*search.Cursor).Current)
}

func (c *Controller) step(move func(*search.Cursor) (search.Match, bool)) (Hit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.liveCursorLocked()
	if cur == nil {
		return Hit{}, false
	}
	m, ok := move(cur)
	if !ok {
		return Hit{}, false
	}
	return Hit{Match: m, Address: c.win.Base() + int64(m.Start), Index: cur.Index(), Count: cur.Len()}, true
}

// liveCursorLocked returns the search cursor unless the window changed
// since the search ran.
func (c *Controller) liveCursorLocked() *search.Cursor {
	if c.cursor == nil || c.cursorGen != c.win.Generation() {
		c.cursor = nil
		return nil
	}
	return c.cursor
}

// Save materializes the edited file. The overlay is not cleared.
func (c *Controller) Save(ctx context.Context) (materialize.Export, error) {
	ref, total, snapshot, err := c.saveSnapshot()
	if err != nil {
		return materialize.Export{}, err
	}
	return c.materialize(ctx, ref, total, snapshot)
}

// SaveTo writes the edited file into sink and returns where it went. Files
// larger than one page are streamed page by page when sink supports it, so
// a save never asks the source for more than a page load does.
func (c *Controller) SaveTo(ctx context.Context, sink materialize.Sink) (string, materialize.Export, error) {
	ref, total, snapshot, err := c.saveSnapshot()
	if err != nil {
		return "", materialize.Export{}, err
	}
	if stream, ok := sink.(materialize.StreamSink); ok && total > c.cfg.PageBytes() {
		return c.streamTo(ctx, stream, ref, total, snapshot)
	}
	exp, err := c.materialize(ctx, ref, total, snapshot)
	if err != nil {
		return "", exp, err
	}
	loc, err := sink.Put(ctx, exp.Name, exp.Data)
	if err != nil {
		return "", exp, fmt.Errorf("hexview: store export: %w", err)
	}
	return loc, exp, nil
}

func (c *Controller) materialize(ctx context.Context, ref source.Ref, total int64, snapshot *overlay.Overlay) (materialize.Export, error) {
	exp, err := materialize.Materialize(ctx, c.src, ref, total, snapshot)
	if err != nil {
		c.log.Warn("save failed", "ref", ref, "error", err)
		return materialize.Export{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	c.log.Info("saved", "ref", ref, "name", exp.Name, "applied", exp.Applied, "ignored", exp.Ignored)
	return exp, nil
}

// streamTo fills sink in page-sized chunks. The returned Export carries
// the counts and checksum but no Data.
func (c *Controller) streamTo(ctx context.Context, sink materialize.StreamSink, ref source.Ref, total int64, snapshot *overlay.Overlay) (string, materialize.Export, error) {
	exp := materialize.Export{Name: materialize.SuggestedName(ref)}
	loc, err := sink.Write(ctx, exp.Name, func(w io.Writer) error {
		res, err := materialize.Stream(ctx, c.src, ref, total, snapshot, w, c.cfg.PageBytes())
		exp.Size, exp.Applied, exp.Ignored, exp.Checksum = res.Written, res.Applied, res.Ignored, res.Checksum
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		return nil
	})
	if err != nil {
		c.log.Warn("save failed", "ref", ref, "error", err)
		return "", exp, err
	}
	c.log.Info("saved", "ref", ref, "path", loc, "applied", exp.Applied, "ignored", exp.Ignored, "streamed", true)
	return loc, exp, nil
}

// ExportTo streams the edited file to w in chunks without buffering it.
func (c *Controller) ExportTo(ctx context.Context, w io.Writer, chunkSize int64) (materialize.StreamResult, error) {
	ref, total, snapshot, err := c.saveSnapshot()
	if err != nil {
		return materialize.StreamResult{}, err
	}
	res, err := materialize.Stream(ctx, c.src, ref, total, snapshot, w, chunkSize)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return res, nil
}

func (c *Controller) saveSnapshot() (source.Ref, int64, *overlay.Overlay, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opened {
		return "", 0, nil, ErrNotOpen
	}
	if c.ov.Count() == 0 {
		return "", 0, nil, ErrNothingToSave
	}
	return c.ref, c.total, c.ov.Clone(), nil
}

// fetch asks the source for a range and checks the reply against the
// request and the known file size.
func (c *Controller) fetch(ctx context.Context, ref source.Ref, off, length int64) (source.Response, error) {
	req := source.Request{Ref: ref, Offset: off, Length: length}
	resp, err := c.src.Fetch(ctx, req)
	if err != nil {
		return source.Response{}, err
	}
	if err := source.Check(req, resp); err != nil {
		return source.Response{}, err
	}
	c.mu.Lock()
	known, total := c.opened, c.total
	c.mu.Unlock()
	if known && resp.TotalSize != total {
		// Size is fixed for the session; a changed file is served as-is.
		c.log.Warn("source size changed mid-session", "ref", ref, "was", total, "now", resp.TotalSize)
	}
	return resp, nil
}

func (c *Controller) replaceWindowLocked(base int64, data []byte) error {
	if err := c.win.Reset(base, c.cfg.BytesPerRow); err != nil {
		return err
	}
	if err := c.win.Append(window.Page{Offset: base, Data: data}); err != nil {
		return err
	}
	c.cursor = nil
	return nil
}

func (c *Controller) failLocked(op string, err error) error {
	c.state = StateError
	c.err = fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, op, err)
	c.log.Error("load failed", "op", op, "ref", c.ref, "error", err)
	return c.err
}

// effectiveView exposes the window with pending edits applied.
type effectiveView struct {
	win *window.Window
	ov  *overlay.Overlay
}

func (v effectiveView) Len() int { return v.win.Len() }

func (v effectiveView) At(i int) byte {
	if b, ok := v.ov.Get(v.win.Base() + int64(i)); ok {
		return b
	}
	return v.win.Bytes()[i]
}
