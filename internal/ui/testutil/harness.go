package testutil

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Harness wraps a bubbletea model for testing, providing helpers to simulate
// user interactions and inspect state. Commands are collected, not run.
type Harness struct {
	model tea.Model
	cmds  []tea.Cmd
}

// NewHarness creates a test harness and captures the model's init command.
func NewHarness(m tea.Model) *Harness {
	h := &Harness{model: m}
	if cmd := m.Init(); cmd != nil {
		h.cmds = append(h.cmds, cmd)
	}
	return h
}

// Model returns the current model for type assertion.
func (h *Harness) Model() tea.Model {
	return h.model
}

// Resize sends a window size message.
func (h *Harness) Resize(width, height int) tea.Cmd {
	return h.SendMsg(tea.WindowSizeMsg{Width: width, Height: height})
}

// View returns the model's rendered content.
func (h *Harness) View() string {
	return h.model.View()
}

// SendMsg sends any message to the model and returns the resulting command.
func (h *Harness) SendMsg(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	h.model, cmd = h.model.Update(msg)
	if cmd != nil {
		h.cmds = append(h.cmds, cmd)
	}
	return cmd
}

// SendKey simulates typing key as runes.
func (h *Harness) SendKey(key string) tea.Cmd {
	return h.SendMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
}

// SendSpecialKey sends a special key (enter, escape, tab, etc.).
func (h *Harness) SendSpecialKey(keyType tea.KeyType) tea.Cmd {
	return h.SendMsg(tea.KeyMsg{Type: keyType})
}

// SendEnter sends the enter key.
func (h *Harness) SendEnter() tea.Cmd {
	return h.SendSpecialKey(tea.KeyEnter)
}

// SendEscape sends the escape key.
func (h *Harness) SendEscape() tea.Cmd {
	return h.SendSpecialKey(tea.KeyEscape)
}

// Commands returns all commands collected since creation or last ClearCommands.
func (h *Harness) Commands() []tea.Cmd {
	return h.cmds
}

// ClearCommands clears the collected commands.
func (h *Harness) ClearCommands() {
	h.cmds = nil
}

// ExecuteCmd runs a command and returns the resulting message.
func ExecuteCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

// IsQuit reports whether cmd quits the program.
func IsQuit(cmd tea.Cmd) bool {
	_, ok := ExecuteCmd(cmd).(tea.QuitMsg)
	return ok
}

// ViewContains checks if the model's view contains the given substring.
func (h *Harness) ViewContains(substr string) bool {
	return FindLine(h.View(), substr) != ""
}
