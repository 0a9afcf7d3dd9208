package keymap

// Context selects which bindings are active.
type Context string

const (
	ContextCard  Context = "card"
	ContextInput Context = "input"
)

// Binding maps keys to an action and documents it.
type Binding struct {
	Action      Action
	Keys        []string // first key is the one shown in hints
	Description string
	Context     Context
}

// Bindings lists every key binding, in help order.
var Bindings = []Binding{
	{ActionQuit, []string{"q", "ctrl+c"}, "Quit", ContextCard},
	{ActionChangeUser, []string{"u", "/"}, "Watch another user", ContextCard},
	{ActionRefresh, []string{"r"}, "Refresh", ContextCard},
	{ActionToggleArt, []string{"a"}, "Toggle cover art", ContextCard},
	{ActionHelp, []string{"?"}, "Show keys", ContextCard},

	{ActionConfirm, []string{"enter"}, "Watch user", ContextInput},
	{ActionCancel, []string{"esc", "ctrl+c"}, "Cancel", ContextInput},
}

// ByContext returns the bindings of one context.
func ByContext(c Context) []Binding {
	var result []Binding
	for _, b := range Bindings {
		if b.Context == c {
			result = append(result, b)
		}
	}
	return result
}

// ForContext returns a resolver over the bindings of one context.
func ForContext(c Context) *Resolver {
	return NewResolver(ByContext(c))
}
