package main

import (
	tea "github.com/charmbracelet/bubbletea"
)

// TestHelper drives a Model without a running program. Key presses keep
// the returned command in lastCmd; Drain executes controller commands and
// feeds their results back through Update.
type TestHelper struct {
	model   Model
	lastCmd tea.Cmd
}

// NewTestHelper wraps m.
func NewTestHelper(m Model) *TestHelper {
	return &TestHelper{model: m}
}

func (h *TestHelper) update(msg tea.Msg) *TestHelper {
	updated, cmd := h.model.Update(msg)
	h.model = updated.(Model)
	h.lastCmd = cmd
	return h
}

// Start runs Init and drains the open command.
func (h *TestHelper) Start() *TestHelper {
	h.lastCmd = h.model.Init()
	return h.Drain()
}

// SendKey simulates a special key press
func (h *TestHelper) SendKey(keyType tea.KeyType) *TestHelper {
	return h.update(tea.KeyMsg{Type: keyType})
}

// SendKeyRune simulates a character key press
func (h *TestHelper) SendKeyRune(r rune) *TestHelper {
	return h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// TypeString sends each rune of s as a key press.
func (h *TestHelper) TypeString(s string) *TestHelper {
	for _, r := range s {
		h.SendKeyRune(r)
	}
	return h
}

// SendWindowSize simulates a window resize
func (h *TestHelper) SendWindowSize(width, height int) *TestHelper {
	return h.update(tea.WindowSizeMsg{Width: width, Height: height})
}

// Drain runs lastCmd and every follow-up command it produces, as long as
// they come from the controller. Other commands (cursor blink, quit) are
// dropped since they would block or end the test.
func (h *TestHelper) Drain() *TestHelper {
	for h.lastCmd != nil {
		msg := h.lastCmd()
		switch msg.(type) {
		case openedMsg, loadedMsg, gotoMsg, resetMsg, savedMsg:
			h.update(msg)
		default:
			h.lastCmd = nil
		}
	}
	return h
}

// GetModel returns the current model
func (h *TestHelper) GetModel() Model {
	return h.model
}

// GetView returns the rendered view
func (h *TestHelper) GetView() string {
	return h.model.View()
}
