// Package keymap defines key bindings and action dispatch for the watch card.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	// Card actions
	ActionQuit       Action = "quit"
	ActionChangeUser Action = "change_user"
	ActionRefresh    Action = "refresh"
	ActionToggleArt  Action = "toggle_art"
	ActionHelp       Action = "help"

	// Username input actions
	ActionConfirm Action = "confirm"
	ActionCancel  Action = "cancel"
)
