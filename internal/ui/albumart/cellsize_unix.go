//go:build unix

package albumart

import (
	"os"

	"golang.org/x/sys/unix"
)

const (
	defaultCellWidth  = 8
	defaultCellHeight = 16
)

// getCellSize asks the terminal for its pixel size (TIOCGWINSZ). Terminals
// that leave the pixel fields empty get the defaults.
func getCellSize() (cellW, cellH int) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 || ws.Xpixel == 0 || ws.Ypixel == 0 {
		return defaultCellWidth, defaultCellHeight
	}
	return int(ws.Xpixel / ws.Col), int(ws.Ypixel / ws.Row)
}
