package albumart

import (
	"os"
	"strings"
)

// ProtocolEnv overrides detection: "kitty", "blocks" or "none".
const ProtocolEnv = "NOWPLAYING_IMAGE_PROTOCOL"

// Detect picks the image protocol for the current terminal: Kitty graphics
// where supported, half blocks on true-color terminals, otherwise nil.
func Detect() Protocol {
	switch os.Getenv(ProtocolEnv) {
	case "kitty":
		return &KittyProtocol{}
	case "blocks":
		return &BlocksProtocol{}
	case "none":
		return nil
	}

	switch {
	case IsKittySupported():
		return &KittyProtocol{}
	case IsTrueColor():
		return &BlocksProtocol{}
	}
	return nil
}

// kittyTerminals are environment checks for terminals that implement the
// Kitty graphics protocol.
var kittyTerminals = []func() bool{
	func() bool { return os.Getenv("KITTY_WINDOW_ID") != "" },
	func() bool { return strings.Contains(os.Getenv("TERM"), "kitty") },
	func() bool { return os.Getenv("TERM_PROGRAM") == "WezTerm" },
	func() bool { return os.Getenv("GHOSTTY_RESOURCES_DIR") != "" },
	// Konsole 22.04 and later; KONSOLE_VERSION reads as YYMMPP.
	func() bool { return os.Getenv("KONSOLE_VERSION") >= "220400" },
}

// IsKittySupported reports whether the terminal understands Kitty graphics.
func IsKittySupported() bool {
	// Contour inherits the variables of the terminal it was started from.
	if os.Getenv("CONTOUR_PROFILE") != "" {
		return false
	}
	for _, match := range kittyTerminals {
		if match() {
			return true
		}
	}
	return false
}

// IsTrueColor reports whether the terminal advertises 24-bit color, which
// half-block art needs.
func IsTrueColor() bool {
	switch strings.ToLower(os.Getenv("COLORTERM")) {
	case "truecolor", "24bit":
		return true
	}
	return strings.HasSuffix(os.Getenv("TERM"), "-direct")
}
