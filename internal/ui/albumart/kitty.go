package albumart

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"
)

const (
	escStart = "\x1b_G"
	escEnd   = "\x1b\\"

	// Largest base64 payload per escape sequence.
	kittyChunk = 4096
	// Every placement shares one placement ID so a new one replaces the old.
	kittyPlacement = 1
)

// KittyProtocol transmits an image once and then places it by ID.
type KittyProtocol struct{}

// Prepare returns the transmit command (a=t) for img as PNG. Nothing is
// displayed until Place.
func (KittyProtocol) Prepare(img image.Image, id uint32, _, _ int) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return kittyTransmit(buf.Bytes(), id), nil
}

// Place puts image id at the 1-based cell (row, col), scaled to width x height
// cells, without moving the cursor.
func (KittyProtocol) Place(id uint32, row, col, width, height int) string {
	return fmt.Sprintf("\x1b[s\x1b[%d;%dH%sa=p,i=%d,p=%d,c=%d,r=%d,C=1,q=2;%s\x1b[u",
		row, col, escStart, id, kittyPlacement, width, height, escEnd)
}

// Delete frees image id and every placement of it.
func (KittyProtocol) Delete(id uint32) string {
	return fmt.Sprintf("%sa=d,d=i,i=%d,q=2;%s", escStart, id, escEnd)
}

// Placeholder reserves the area; the terminal draws the image over it.
func (KittyProtocol) Placeholder(width, height int) string {
	return BlankPlaceholder(width, height)
}

// TargetPixelSize uses the real cell size when the terminal reports it.
func (KittyProtocol) TargetPixelSize(widthCells, heightCells int) (int, int) {
	cellW, cellH := getCellSize()
	return max(widthCells*cellW, 64), max(heightCells*cellH, 64)
}

// kittyTransmit splits the base64 PNG into chunks; only the first carries
// the keys, m=1 marks that more follow.
func kittyTransmit(pngData []byte, id uint32) string {
	encoded := base64.StdEncoding.EncodeToString(pngData)

	var sb strings.Builder
	for start := 0; start < len(encoded); start += kittyChunk {
		end := min(start+kittyChunk, len(encoded))
		more := 0
		if end < len(encoded) {
			more = 1
		}

		sb.WriteString(escStart)
		if start == 0 {
			fmt.Fprintf(&sb, "a=t,f=100,i=%d,q=2,", id)
		}
		fmt.Fprintf(&sb, "m=%d;%s%s", more, encoded[start:end], escEnd)
	}
	return sb.String()
}

// BlankPlaceholder returns a width x height block of spaces.
func BlankPlaceholder(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat(strings.Repeat(" ", width)+"\n", height), "\n")
}
