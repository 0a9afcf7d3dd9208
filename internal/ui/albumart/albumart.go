// Package albumart draws cover art in the terminal, with the Kitty graphics
// protocol or half blocks.
package albumart

import (
	"image"
	"sync/atomic"

	"github.com/nfnt/resize"
)

// Image IDs are unique per process so that two cards in one terminal never
// overwrite each other.
var imageIDs atomic.Uint32

// shown is the image last sent to the terminal. A zero id means none.
type shown struct {
	url string
	id  uint32
}

// Renderer tracks the artwork currently shown. It belongs to a single
// bubbletea model and is not safe for concurrent use. A nil protocol renders
// nothing.
type Renderer struct {
	protocol      Protocol
	width, height int // cells
	current       shown
}

// New creates a renderer for protocol, which may be nil.
func New(protocol Protocol) *Renderer {
	return &Renderer{protocol: protocol}
}

// Enabled reports whether images can be shown at all.
func (r *Renderer) Enabled() bool { return r.protocol != nil }

// SetSize sets the display dimensions in terminal cells. A change makes the
// next Prepare encode again, even for the same url.
func (r *Renderer) SetSize(width, height int) {
	if width != r.width || height != r.height {
		r.width, r.height = width, height
		r.current.url = ""
	}
}

// Size returns the display dimensions in cells.
func (r *Renderer) Size() (width, height int) { return r.width, r.height }

// HasImage reports whether an image is prepared.
func (r *Renderer) HasImage() bool { return r.current.id != 0 }

// CurrentURL returns the artwork URL of the prepared image.
func (r *Renderer) CurrentURL() string { return r.current.url }

// Prepare makes img, fetched from url, the displayed artwork. The result
// must be written to the terminal once: it deletes the previous image and
// transmits the new one. Preparing the shown url again returns "".
func (r *Renderer) Prepare(url string, img image.Image) string {
	if r.protocol == nil || img == nil || r.width <= 0 || r.height <= 0 {
		return ""
	}
	if r.HasImage() && r.current.url == url {
		return ""
	}

	out := r.Clear()

	pw, ph := r.protocol.TargetPixelSize(r.width, r.height)
	//nolint:gosec // cell counts are small
	thumb := resize.Thumbnail(uint(pw), uint(ph), img, resize.Lanczos3)

	id := imageIDs.Add(1)
	transmit, err := r.protocol.Prepare(thumb, id, r.width, r.height)
	if err != nil {
		return out
	}
	r.current = shown{url: url, id: id}
	return out + transmit
}

// Placeholder returns what to lay out where the image goes.
func (r *Renderer) Placeholder() string {
	if !r.Enabled() || !r.HasImage() {
		return BlankPlaceholder(r.width, r.height)
	}
	return r.protocol.Placeholder(r.width, r.height)
}

// PlacementCmd places the prepared image with its top-left corner at the
// 1-based terminal position row, col.
func (r *Renderer) PlacementCmd(row, col int) string {
	if !r.Enabled() || !r.HasImage() {
		return ""
	}
	return r.protocol.Place(r.current.id, row, col, r.width, r.height)
}

// Clear forgets the current image and returns the command that deletes it
// from terminal memory.
func (r *Renderer) Clear() string {
	var cmd string
	if r.Enabled() && r.HasImage() {
		cmd = r.protocol.Delete(r.current.id)
	}
	r.current = shown{}
	return cmd
}
