package keymap

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"
)

// Resolver maps key presses to actions.
type Resolver struct {
	actions map[string]Action
	keys    map[Action][]string
}

// NewResolver indexes bindings. When two bindings claim a key the first one
// keeps it.
func NewResolver(bindings []Binding) *Resolver {
	r := &Resolver{
		actions: make(map[string]Action),
		keys:    make(map[Action][]string),
	}
	for _, b := range bindings {
		for _, key := range b.Keys {
			if _, taken := r.actions[key]; !taken {
				r.actions[key] = b.Action
			}
			if !slices.Contains(r.keys[b.Action], key) {
				r.keys[b.Action] = append(r.keys[b.Action], key)
			}
		}
	}
	return r
}

// Resolve returns the action bound to msg, or "" when none is.
func (r *Resolver) Resolve(msg tea.KeyMsg) Action {
	return r.ResolveString(msg.String())
}

// ResolveString looks up a key in bubbletea's string form ("ctrl+c", "?").
func (r *Resolver) ResolveString(key string) Action {
	return r.actions[key]
}

// KeysFor returns the keys bound to action, in binding order.
func (r *Resolver) KeysFor(action Action) []string {
	return r.keys[action]
}
