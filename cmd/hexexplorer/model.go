package main

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/hexkit/hexview"
	"github.com/joshuapare/hexkit/hexview/materialize"
	"github.com/joshuapare/hexkit/hexview/source"
	"github.com/joshuapare/hexkit/internal/hexfmt"
	"github.com/joshuapare/hexkit/internal/logger"
)

// InputMode represents the current prompt, if any
type InputMode int

const (
	NormalMode InputMode = iota
	SearchMode
	GotoMode
)

// confirmAction is a destructive command waiting for a yes/no answer.
type confirmAction int

const (
	confirmNone confirmAction = iota
	confirmSave
	confirmReset
)

func (a confirmAction) String() string {
	switch a {
	case confirmSave:
		return "Save"
	case confirmReset:
		return "Reset"
	}
	return ""
}

// chromeLines is the header and status bar height around the grid.
const chromeLines = 4

// Options configures a Model.
type Options struct {
	Charset hexfmt.Charset
	Sink    materialize.Sink
}

// Model is the bubbletea model for the hex explorer.
type Model struct {
	ctx  context.Context
	ctl  *hexview.Controller
	ref  source.Ref
	opts Options
	keys KeyMap

	width  int
	height int

	// cursor is the absolute address under the cursor; top is the first
	// window row on screen.
	cursor int64
	top    int

	loadingMore bool
	opened      bool

	edit hexview.EditSession

	inputMode InputMode
	input     textinput.Model

	showHelp bool
	confirm  confirmAction

	statusMessage string
	statusIsError bool
}

// NewModel creates a model that opens ref on Init.
func NewModel(ctx context.Context, ctl *hexview.Controller, ref source.Ref, opts Options) Model {
	if opts.Charset == "" {
		opts.Charset = hexfmt.ASCII
	}
	if opts.Sink == nil {
		opts.Sink = materialize.DirSink{Dir: "."}
	}
	ti := textinput.New()
	ti.CharLimit = 64
	ti.Prompt = ""
	return Model{
		ctx:    ctx,
		ctl:    ctl,
		ref:    ref,
		opts:   opts,
		keys:   DefaultKeyMap(),
		width:  80,
		height: 24,
		input:  ti,
	}
}

// Init starts loading the first page.
func (m Model) Init() tea.Cmd {
	return openCmd(m.ctx, m.ctl, m.ref)
}

// Messages produced by controller commands.
type (
	openedMsg struct{ err error }
	loadedMsg struct {
		appended bool
		err      error
	}
	gotoMsg struct {
		addr int64
		err  error
	}
	resetMsg struct{ err error }
	savedMsg struct {
		path string
		exp  materialize.Export
		err  error
	}
)

func openCmd(ctx context.Context, ctl *hexview.Controller, ref source.Ref) tea.Cmd {
	return func() tea.Msg {
		logger.Info("opening file", "ref", ref)
		return openedMsg{err: ctl.Open(ctx, ref)}
	}
}

func loadMoreCmd(ctx context.Context, ctl *hexview.Controller) tea.Cmd {
	return func() tea.Msg {
		ok, err := ctl.LoadMore(ctx)
		return loadedMsg{appended: ok, err: err}
	}
}

func gotoCmd(ctx context.Context, ctl *hexview.Controller, addr int64) tea.Cmd {
	return func() tea.Msg {
		return gotoMsg{addr: addr, err: ctl.Goto(ctx, addr)}
	}
}

func resetCmd(ctx context.Context, ctl *hexview.Controller) tea.Cmd {
	return func() tea.Msg {
		return resetMsg{err: ctl.ResetEdits(ctx)}
	}
}

func saveCmd(ctx context.Context, ctl *hexview.Controller, sink materialize.Sink) tea.Cmd {
	return func() tea.Msg {
		path, exp, err := ctl.SaveTo(ctx, sink)
		return savedMsg{path: path, exp: exp, err: err}
	}
}

// visibleRows returns how many grid rows fit on screen.
func (m Model) visibleRows() int {
	return max(m.height-chromeLines, 1)
}

func (m Model) rowWidth() int64 {
	return int64(m.ctl.Config().BytesPerRow)
}

// cursorRow returns the window row holding the cursor.
func (m Model) cursorRow() int {
	return int((m.cursor - m.ctl.Base()) / m.rowWidth())
}

func (m *Model) setStatus(msg string) {
	m.statusMessage = msg
	m.statusIsError = false
}

func (m *Model) setError(msg string) {
	m.statusMessage = msg
	m.statusIsError = true
}
