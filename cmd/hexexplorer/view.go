package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"

	"github.com/joshuapare/hexkit/hexview"
	"github.com/joshuapare/hexkit/hexview/materialize"
	"github.com/joshuapare/hexkit/internal/hexfmt"
)

// View renders the UI
func (m Model) View() string {
	body := lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.renderRuler(),
		m.renderGrid(),
		m.renderStatus(),
	)
	var fg tea.Model
	switch {
	case m.showHelp:
		fg = helpView{keys: m.keys}
	case m.confirm != confirmNone:
		fg = m.confirmView()
	default:
		return body
	}
	// Rebuilt each render; stored pointers would go stale across Updates.
	modal := overlay.New(
		fg,
		backgroundView{content: body},
		overlay.Center,
		overlay.Center,
		0,
		0,
	)
	return modal.View()
}

// renderHeader renders the title bar with the file name and size
func (m Model) renderHeader() string {
	title := headerStyle.Render("Hex Explorer")
	if m.ref == "" {
		return title
	}
	file := pathStyle.Render(fmt.Sprintf(" %s  %s", m.ref, hexfmt.Size(m.ctl.TotalSize())))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, file)
}

// renderRuler renders the column offsets above the grid.
func (m Model) renderRuler() string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", 10))
	for i := range m.ctl.Config().BytesPerRow {
		if i > 0 && i%8 == 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X ", i)
	}
	return addressStyle.Render(b.String())
}

func (m Model) renderGrid() string {
	rows := m.visibleRows()
	var lines []string
	switch {
	case !m.opened && m.ctl.State() == hexview.StateError:
		lines = append(lines, errorStyle.Render("Could not open file. Press q to quit."))
	case !m.opened:
		lines = append(lines, successStyle.Render("Loading..."))
	default:
		for _, row := range m.ctl.Rows(m.top, rows) {
			lines = append(lines, m.renderRow(row))
		}
		if len(lines) < rows && m.loadingMore {
			lines = append(lines, successStyle.Render("Loading more..."))
		}
	}
	for len(lines) < rows {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderRow renders one address line: offset, hex cells and text column.
func (m Model) renderRow(row hexview.Row) string {
	var b strings.Builder
	b.WriteString(addressStyle.Render(hexfmt.Address(row.Address)))
	b.WriteString("  ")
	for i, cell := range row.Cells {
		if i > 0 && i%8 == 0 {
			b.WriteByte(' ')
		}
		b.WriteString(m.renderCell(cell))
		b.WriteByte(' ')
	}
	if width := m.ctl.Config().BytesPerRow; len(row.Cells) < width {
		pad := 3*(width-len(row.Cells)) + groupGaps(width) - groupGaps(len(row.Cells))
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteString(" ")
	b.WriteString(textColumnStyle.Render("|" + m.opts.Charset.Text(row.Bytes()) + "|"))
	return b.String()
}

// groupGaps counts the extra spaces between 8-byte groups in a row of n cells.
func groupGaps(n int) int {
	if n == 0 {
		return 0
	}
	return (n - 1) / 8
}

func (m Model) renderCell(cell hexview.Cell) string {
	text := hexfmt.Byte(cell.Value)
	if cell.Address == m.cursor {
		if m.edit.Mode == hexview.Editing && m.edit.Address == cell.Address {
			return editingStyle.Render(fmt.Sprintf("%-2s", m.edit.Display()))
		}
		return cursorStyle.Render(text)
	}
	switch {
	case cell.Current:
		return currentMatchStyle.Render(text)
	case cell.Match:
		return matchStyle.Render(text)
	case cell.Modified:
		return modifiedStyle.Render(text)
	}
	return text
}

// renderStatus renders the two status lines: position and counts, then
// the prompt or the last message.
func (m Model) renderStatus() string {
	pos := fmt.Sprintf("Offset %s", hexfmt.Address(m.cursor))
	if b, err := m.ctl.ReadByte(m.cursor); err == nil {
		pos += fmt.Sprintf("  Value %s (%d)", hexfmt.Byte(b), b)
	}
	loaded := fmt.Sprintf("Loaded %s-%s of %s",
		hexfmt.Address(m.ctl.Base()), hexfmt.Address(m.ctl.End()), hexfmt.Size(m.ctl.TotalSize()))
	mods := statusCountStyle.Render(m.ctl.Status())
	line := statusStyle.Width(max(m.width, 1)).Render(strings.Join([]string{pos, loaded, mods}, "  │  "))

	var second string
	switch {
	case m.inputMode == SearchMode:
		second = promptStyle.Render("Search hex: ") + m.input.View()
	case m.inputMode == GotoMode:
		second = promptStyle.Render("Go to: ") + m.input.View()
	case m.statusIsError:
		second = errorStyle.Render(m.statusMessage)
	case m.statusMessage != "":
		second = successStyle.Render(m.statusMessage)
	default:
		second = addressStyle.Render("? for help")
	}
	return lipgloss.JoinVertical(lipgloss.Left, line, second)
}

// helpView is the foreground of the help overlay.
type helpView struct {
	keys KeyMap
}

func (h helpView) Init() tea.Cmd                       { return nil }
func (h helpView) Update(tea.Msg) (tea.Model, tea.Cmd) { return h, nil }

func (h helpView) View() string {
	var b strings.Builder
	b.WriteString(modalTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, section := range h.keys.helpSections() {
		b.WriteString("\n")
		b.WriteString(modalTitleStyle.Render(section.title))
		b.WriteString("\n")
		for _, binding := range section.bindings {
			help := binding.Help()
			b.WriteString(helpKeyStyle.Render(help.Key))
			b.WriteString(helpDescStyle.Render(help.Desc))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(addressStyle.Render("esc or ? to close"))
	return modalStyle.Render(b.String())
}

// confirmView asks before a save or reset.
type confirmView struct {
	title   string
	details []string
	keys    KeyMap
}

func (m Model) confirmView() confirmView {
	n := m.ctl.Modified()
	v := confirmView{keys: m.keys}
	switch m.confirm {
	case confirmSave:
		v.title = "Save modified copy?"
		v.details = []string{
			fmt.Sprintf("%d byte(s) modified", n),
			"Writes " + materialize.SuggestedName(m.ref) + "; the original is not changed.",
		}
	case confirmReset:
		v.title = "Reset modifications?"
		v.details = []string{
			fmt.Sprintf("%d byte(s) modified", n),
			"Discards every pending edit and reloads the original bytes.",
		}
	}
	return v
}

func (v confirmView) Init() tea.Cmd                       { return nil }
func (v confirmView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }

func (v confirmView) View() string {
	var b strings.Builder
	b.WriteString(modalTitleStyle.Render(v.title))
	b.WriteString("\n\n")
	for _, line := range v.details {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for _, binding := range []key.Binding{v.keys.Confirm, v.keys.Decline} {
		help := binding.Help()
		b.WriteString(helpKeyStyle.Render(help.Key))
		b.WriteString(helpDescStyle.Render(help.Desc))
		b.WriteString("\n")
	}
	return modalStyle.Render(strings.TrimSuffix(b.String(), "\n"))
}

// backgroundView holds the rendered main UI behind an overlay.
type backgroundView struct {
	content string
}

func (v backgroundView) Init() tea.Cmd                       { return nil }
func (v backgroundView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }
func (v backgroundView) View() string                        { return v.content }
