package keymap

import (
	"slices"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestResolver_Resolve(t *testing.T) {
	r := ForContext(ContextCard)

	tests := []struct {
		name string
		msg  tea.KeyMsg
		want Action
	}{
		{"q", runes("q"), ActionQuit},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, ActionQuit},
		{"slash", runes("/"), ActionChangeUser},
		{"question mark", runes("?"), ActionHelp},
		{"a", runes("a"), ActionToggleArt},
		{"unbound rune", runes("x"), ""},
		{"unbound special", tea.KeyMsg{Type: tea.KeyTab}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.msg); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.msg.String(), got, tt.want)
			}
		})
	}
}

func TestResolver_FirstBindingKeepsKey(t *testing.T) {
	r := NewResolver([]Binding{
		{ActionQuit, []string{"q"}, "Quit", ContextCard},
		{ActionRefresh, []string{"q", "r"}, "Refresh", ContextCard},
	})

	if got := r.ResolveString("q"); got != ActionQuit {
		t.Errorf("ResolveString(q) = %q, want %q", got, ActionQuit)
	}
	if got := r.ResolveString("r"); got != ActionRefresh {
		t.Errorf("ResolveString(r) = %q, want %q", got, ActionRefresh)
	}
}

func TestResolver_KeysFor(t *testing.T) {
	r := NewResolver([]Binding{
		{ActionQuit, []string{"q", "ctrl+c"}, "Quit", ContextCard},
		{ActionQuit, []string{"ctrl+c", "Q"}, "Quit", ContextInput},
	})

	if got, want := r.KeysFor(ActionQuit), []string{"q", "ctrl+c", "Q"}; !slices.Equal(got, want) {
		t.Errorf("KeysFor(quit) = %v, want %v", got, want)
	}
	if got := r.KeysFor(ActionHelp); got != nil {
		t.Errorf("KeysFor(help) = %v, want nil", got)
	}
}
