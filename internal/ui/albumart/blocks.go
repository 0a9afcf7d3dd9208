package albumart

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/nfnt/resize"
)

const (
	upperHalf = "▀"
	sgrReset  = "\x1b[0m"
)

// BlocksProtocol draws images with upper half blocks in 24-bit color, two
// pixels per cell. It keeps the last rendered image.
type BlocksProtocol struct {
	mu   sync.Mutex
	id   uint32
	text string
}

func (b *BlocksProtocol) Prepare(img image.Image, id uint32, width, height int) (string, error) {
	text := RenderBlocks(img, width, height)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.id, b.text = id, text
	return "", nil
}

func (b *BlocksProtocol) Place(uint32, int, int, int, int) string {
	return ""
}

func (b *BlocksProtocol) Delete(id uint32) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.id == id {
		b.id, b.text = 0, ""
	}
	return ""
}

// Placeholder returns the rendered image, or blanks before one is prepared.
func (b *BlocksProtocol) Placeholder(width, height int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.text == "" {
		return BlankPlaceholder(width, height)
	}
	return b.text
}

func (b *BlocksProtocol) TargetPixelSize(widthCells, heightCells int) (int, int) {
	return widthCells, heightCells * 2
}

// RenderBlocks scales img to width x height cells and returns one line per
// cell row.
func RenderBlocks(img image.Image, width, height int) string {
	if img == nil || width <= 0 || height <= 0 {
		return ""
	}

	//nolint:gosec // dimensions are small, no overflow risk
	scaled := resize.Resize(uint(width), uint(height*2), img, resize.Bilinear)
	bounds := scaled.Bounds()

	lines := make([]string, height)
	var sb strings.Builder
	for row := range height {
		sb.Reset()
		y := bounds.Min.Y + row*2
		for x := bounds.Min.X; x < bounds.Min.X+width; x++ {
			top := rgb(scaled.At(x, y))
			bottom := rgb(scaled.At(x, y+1))
			fmt.Fprintf(&sb, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%s",
				top.R, top.G, top.B, bottom.R, bottom.G, bottom.B, upperHalf)
		}
		sb.WriteString(sgrReset)
		lines[row] = sb.String()
	}
	return strings.Join(lines, "\n")
}

func rgb(c color.Color) color.RGBA {
	r, g, b, _ := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0xff} //nolint:gosec // 16-bit to 8-bit
}
