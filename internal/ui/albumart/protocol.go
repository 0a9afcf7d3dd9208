package albumart

import "image"

// Protocol abstracts how cover art reaches the terminal.
type Protocol interface {
	// Prepare encodes the image and returns any one-time terminal command.
	// Kitty: transmits to terminal memory, returns escape sequences.
	// Blocks: renders half-block text internally, returns empty string.
	Prepare(img image.Image, id uint32, width, height int) (string, error)

	// Place returns the escape sequence to display the image at (row, col).
	// Blocks: no-op (returns "").
	Place(id uint32, row, col, width, height int) string

	// Delete returns the escape sequence to remove the image.
	// Blocks: no-op (returns "").
	Delete(id uint32) string

	// Placeholder returns the string laid out where the image goes. It must
	// measure exactly width x height cells.
	Placeholder(width, height int) string

	// TargetPixelSize returns the pixel dimensions to use when resizing an
	// image shown in the given number of cells.
	TargetPixelSize(widthCells, heightCells int) (pixelWidth, pixelHeight int)
}
