// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Startup
	OpConfigLoad Op = "load configuration"
	OpStateOpen  Op = "open state database"
	OpLogOpen    Op = "open log file"

	// Player observation
	OpSessionBus Op = "connect to the session bus"
	OpObserve    Op = "watch media players"

	// Submission
	OpListenSubmit  Op = "submit listen"
	OpPendingFlush  Op = "resubmit pending listens"
	OpTokenValidate Op = "validate ListenBrainz token"

	// Last.fm link
	OpLastfmToken   Op = "get Last.fm token"
	OpLastfmSession Op = "get Last.fm session"
	OpLastfmSave    Op = "save Last.fm session"
	OpLastfmUnlink  Op = "remove Last.fm session"

	// Players
	OpPlayersList   Op = "list players"
	OpPlayersUpdate Op = "update player"

	// Metrics
	OpMetricsServe Op = "serve metrics"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

// Wrap returns err annotated with op, for errors that propagate to main.
func Wrap(op Op, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
