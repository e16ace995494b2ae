package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/hexkit/hexview"
	"github.com/joshuapare/hexkit/internal/hexfmt"
	"github.com/joshuapare/hexkit/internal/logger"
)

// Update handles incoming messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.scrollIntoView()
		cmd := m.maybeLoadMore()
		return m, cmd

	case openedMsg:
		if msg.err != nil {
			logger.Error("open failed", "ref", m.ref, "error", msg.err)
			m.setError(msg.err.Error())
			return m, nil
		}
		m.opened = true
		m.cursor, m.top = 0, 0
		m.setStatus(fmt.Sprintf("Loaded %s (%s)", m.ref.Name(), hexfmt.Size(m.ctl.TotalSize())))
		cmd := m.maybeLoadMore()
		return m, cmd

	case loadedMsg:
		m.loadingMore = false
		if msg.err != nil {
			m.setError("Load failed: " + msg.err.Error())
			return m, nil
		}
		if msg.appended {
			cmd := m.maybeLoadMore()
			return m, cmd
		}
		return m, nil

	case gotoMsg:
		if errors.Is(msg.err, hexview.ErrSuperseded) {
			return m, nil
		}
		if msg.err != nil {
			m.setError(msg.err.Error())
			return m, nil
		}
		m.loadingMore = false
		m.cursor = msg.addr
		m.top = m.cursorRow()
		m.setStatus("Jumped to " + hexfmt.Address(msg.addr))
		cmd := m.maybeLoadMore()
		return m, cmd

	case resetMsg:
		switch {
		case hexview.IsNoop(msg.err):
			m.setStatus("No modifications to reset")
		case msg.err != nil:
			m.setError(msg.err.Error())
		default:
			m.clampCursor()
			m.setStatus("Modifications reset")
		}
		return m, nil

	case savedMsg:
		switch {
		case hexview.IsNoop(msg.err):
			m.setStatus("No modifications to save")
		case msg.err != nil:
			logger.Warn("save failed", "ref", m.ref, "error", msg.err)
			m.setError("Save failed: " + msg.err.Error())
		default:
			logger.Info("saved", "path", msg.path, "applied", msg.exp.Applied)
			m.setStatus(fmt.Sprintf("Saved %s (%d modification(s))", msg.path, msg.exp.Applied))
		}
		return m, nil

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			cmd := m.moveCursor(-3 * m.rowWidth())
			return m, cmd
		case tea.MouseButtonWheelDown:
			cmd := m.moveCursor(3 * m.rowWidth())
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Esc) || key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}
	if m.confirm != confirmNone {
		return m.handleConfirmKey(msg)
	}
	if m.inputMode != NormalMode {
		return m.handleInputMode(msg)
	}
	if m.edit.Mode == hexview.Editing {
		return m.handleEditKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	}
	if !m.opened {
		return m, nil
	}

	width := m.rowWidth()
	page := int64(m.visibleRows()) * width
	switch {
	case key.Matches(msg, m.keys.Up):
		cmd := m.moveCursor(-width)
		return m, cmd
	case key.Matches(msg, m.keys.Down):
		cmd := m.moveCursor(width)
		return m, cmd
	case key.Matches(msg, m.keys.Left):
		cmd := m.moveCursor(-1)
		return m, cmd
	case key.Matches(msg, m.keys.Right):
		cmd := m.moveCursor(1)
		return m, cmd
	case key.Matches(msg, m.keys.PageUp):
		cmd := m.moveCursor(-page)
		return m, cmd
	case key.Matches(msg, m.keys.PageDown):
		cmd := m.moveCursor(page)
		return m, cmd
	case key.Matches(msg, m.keys.Home):
		cmd := m.moveCursor(m.ctl.Base() - m.cursor)
		return m, cmd
	case key.Matches(msg, m.keys.End):
		cmd := m.moveCursor(m.ctl.End() - 1 - m.cursor)
		return m, cmd

	case key.Matches(msg, m.keys.Enter), key.Matches(msg, m.keys.Edit):
		b, err := m.ctl.ReadByte(m.cursor)
		if err != nil {
			m.setError(err.Error())
			return m, nil
		}
		m.edit = m.edit.Begin(m.cursor, b)
		m.setStatus("Editing " + hexfmt.Address(m.cursor) + ": type two hex digits")
		return m, nil

	case key.Matches(msg, m.keys.Revert):
		if m.ctl.RevertByte(m.cursor) {
			m.setStatus(m.ctl.Status())
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		return m.startInput(SearchMode, "FF D8 FF")
	case key.Matches(msg, m.keys.Goto):
		return m.startInput(GotoMode, "hex address")

	case key.Matches(msg, m.keys.NextMatch):
		hit, ok := m.ctl.NextMatch()
		cmd := m.jumpToMatch(hit, ok)
		return m, cmd
	case key.Matches(msg, m.keys.PrevMatch):
		hit, ok := m.ctl.PrevMatch()
		cmd := m.jumpToMatch(hit, ok)
		return m, cmd

	case key.Matches(msg, m.keys.Copy):
		addr := hexfmt.Address(m.cursor)
		if err := clipboard.WriteAll(addr); err != nil {
			m.setError("Copy failed: " + err.Error())
		} else {
			m.setStatus("Copied " + addr)
		}
		return m, nil

	case key.Matches(msg, m.keys.Save):
		if !m.ctl.CanSave() {
			m.setStatus("No modifications to save")
			return m, nil
		}
		m.confirm = confirmSave
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		if !m.ctl.CanReset() {
			m.setStatus("No modifications to reset")
			return m, nil
		}
		m.confirm = confirmReset
		return m, nil

	case key.Matches(msg, m.keys.Esc):
		m.statusMessage = ""
		return m, nil
	}
	return m, nil
}

// handleConfirmKey answers the save/reset dialog. Other keys are ignored
// until it is answered.
func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.confirm
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirm = confirmNone
		switch action {
		case confirmSave:
			m.setStatus(fmt.Sprintf("Saving %d modification(s)...", m.ctl.Modified()))
			return m, saveCmd(m.ctx, m.ctl, m.opts.Sink)
		case confirmReset:
			m.edit = m.edit.Cancel()
			return m, resetCmd(m.ctx, m.ctl)
		}
	case key.Matches(msg, m.keys.Decline):
		m.confirm = confirmNone
		m.setStatus(action.String() + " cancelled")
	}
	return m, nil
}

func (m Model) startInput(mode InputMode, placeholder string) (tea.Model, tea.Cmd) {
	m.inputMode = mode
	m.input.Reset()
	m.input.Placeholder = placeholder
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) handleInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.inputMode = NormalMode
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		mode, value := m.inputMode, strings.TrimSpace(m.input.Value())
		m.inputMode = NormalMode
		m.input.Blur()
		switch mode {
		case SearchMode:
			return m.runSearch(value)
		case GotoMode:
			addr, err := parseHexAddress(value)
			if err != nil {
				m.setError(err.Error())
				return m, nil
			}
			if addr < 0 || addr >= m.ctl.TotalSize() {
				m.setError(fmt.Sprintf("Address %s is outside the file (size %s)", value, hexfmt.Address(m.ctl.TotalSize())))
				return m, nil
			}
			m.setStatus("Loading " + hexfmt.Address(addr) + "...")
			return m, gotoCmd(m.ctx, m.ctl, addr)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) runSearch(pattern string) (tea.Model, tea.Cmd) {
	res, err := m.ctl.Search(pattern)
	if err != nil {
		m.setError(err.Error())
		return m, nil
	}
	if res.Empty() {
		m.setStatus(fmt.Sprintf("No matches in loaded bytes (%s)", hexfmt.Size(int64(m.ctl.Len()))))
		return m, nil
	}
	hit, ok := m.ctl.CurrentMatch()
	cmd := m.jumpToMatch(hit, ok)
	return m, cmd
}

func (m *Model) jumpToMatch(hit hexview.Hit, ok bool) tea.Cmd {
	if !ok {
		m.setStatus("No active search")
		return nil
	}
	m.setStatus(fmt.Sprintf("Match %d/%d at %s", hit.Index+1, hit.Count, hexfmt.Address(hit.Address)))
	return m.moveCursor(hit.Address - m.cursor)
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.edit = m.edit.Cancel()
		m.setStatus("Edit cancelled")
		return m, nil
	case tea.KeyBackspace:
		m.edit = m.edit.Backspace()
		return m, nil
	case tea.KeyEnter:
		return m.commitEdit()
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.edit = m.edit.Type(r)
		}
		if m.edit.Full() {
			return m.commitEdit()
		}
	}
	return m, nil
}

func (m Model) commitEdit() (tea.Model, tea.Cmd) {
	res, next, err := m.ctl.Commit(m.edit)
	draft := m.edit.Draft
	m.edit = next
	if err != nil {
		if errors.Is(err, hexview.ErrInvalidEditInput) {
			m.setError(fmt.Sprintf("Invalid hex %q, kept %s", draft, hexfmt.Byte(res.Value)))
		} else {
			m.setError(err.Error())
		}
		return m, nil
	}
	m.setStatus(m.ctl.Status())
	cmd := m.moveCursor(1)
	return m, cmd
}

// moveCursor shifts the cursor by delta bytes, clamped to the loaded window,
// and asks for another page when the cursor nears the bottom.
func (m *Model) moveCursor(delta int64) tea.Cmd {
	m.cursor += delta
	m.clampCursor()
	m.scrollIntoView()
	return m.maybeLoadMore()
}

func (m *Model) clampCursor() {
	base, end := m.ctl.Base(), m.ctl.End()
	if end == base {
		m.cursor = base
		return
	}
	m.cursor = min(max(m.cursor, base), end-1)
}

func (m *Model) scrollIntoView() {
	if !m.opened {
		return
	}
	row, visible := m.cursorRow(), m.visibleRows()
	if row < m.top {
		m.top = row
	} else if row >= m.top+visible {
		m.top = row - visible + 1
	}
	m.top = max(m.top, 0)
}

// maybeLoadMore requests the next page when fewer than a screen of loaded
// rows remain below the cursor. The controller drops overlapping loads, so
// the flag only avoids piling up commands.
func (m *Model) maybeLoadMore() tea.Cmd {
	if !m.opened || m.loadingMore || !m.ctl.NeedsMore() {
		return nil
	}
	if m.ctl.RowCount()-m.cursorRow() > m.visibleRows() {
		return nil
	}
	m.loadingMore = true
	return loadMoreCmd(m.ctx, m.ctl)
}

// parseHexAddress reads a goto address as hex, with or without 0x.
func parseHexAddress(s string) (int64, error) {
	s = strings.TrimSpace(s)
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	n, err := strconv.ParseInt(digits, 16, 64)
	if err != nil || digits == "" {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return n, nil
}
