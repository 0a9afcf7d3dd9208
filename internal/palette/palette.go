// Package palette extracts prominent colours from cover art.
package palette

import (
	"cmp"
	"errors"
	"image"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

// sampleSize bounds the thumbnail that is quantized.
const sampleSize = 96

// ErrNoColors is returned for images without opaque pixels.
var ErrNoColors = errors.New("palette: image has no opaque pixels")

// Swatch is one representative colour and how many sampled pixels it covers.
type Swatch struct {
	Color      colorful.Color
	Population int
}

// Hex returns the colour as #rrggbb.
func (s Swatch) Hex() string {
	return s.Color.Clamped().Hex()
}

// TextColor returns black or white, whichever contrasts more with the swatch.
func (s Swatch) TextColor() colorful.Color {
	white := colorful.Color{R: 1, G: 1, B: 1}
	black := colorful.Color{}
	if Contrast(s.Color, white) >= Contrast(s.Color, black) {
		return white
	}
	return black
}

// Palette holds the swatches picked from an image. Vibrant and Muted are nil
// when no colour qualifies.
type Palette struct {
	Dominant Swatch
	Vibrant  *Swatch
	Muted    *Swatch
}

// Accent returns the vibrant swatch, falling back to dominant.
func (p *Palette) Accent() Swatch {
	if p.Vibrant != nil {
		return *p.Vibrant
	}
	return p.Dominant
}

// Background returns the muted swatch, falling back to dominant.
func (p *Palette) Background() Swatch {
	if p.Muted != nil {
		return *p.Muted
	}
	return p.Dominant
}

// FromImage computes a palette from img.
func FromImage(img image.Image) (*Palette, error) {
	thumb := resize.Thumbnail(sampleSize, sampleSize, img, resize.Bilinear)
	swatches := quantize(thumb)
	if len(swatches) == 0 {
		return nil, ErrNoColors
	}

	p := &Palette{Dominant: swatches[0]}
	p.Vibrant = pick(swatches, vibrant)
	p.Muted = pick(swatches, muted)
	return p, nil
}

// quantize buckets pixels by their top five bits per channel and returns
// the bucket averages, most populated first.
func quantize(img image.Image) []Swatch {
	type bucket struct {
		r, g, b float64
		n       int
	}
	buckets := make(map[uint16]*bucket)

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if a < 0x8000 {
				continue
			}
			key := uint16(r>>11)<<10 | uint16(g>>11)<<5 | uint16(b>>11)
			bk := buckets[key]
			if bk == nil {
				bk = &bucket{}
				buckets[key] = bk
			}
			bk.r += float64(r) / 0xffff
			bk.g += float64(g) / 0xffff
			bk.b += float64(b) / 0xffff
			bk.n++
		}
	}

	swatches := make([]Swatch, 0, len(buckets))
	for _, bk := range buckets {
		n := float64(bk.n)
		swatches = append(swatches, Swatch{
			Color:      colorful.Color{R: bk.r / n, G: bk.g / n, B: bk.b / n},
			Population: bk.n,
		})
	}
	slices.SortFunc(swatches, func(a, b Swatch) int {
		if c := cmp.Compare(b.Population, a.Population); c != 0 {
			return c
		}
		return cmp.Compare(a.Hex(), b.Hex())
	})
	return swatches
}

// target describes the saturation and lightness a swatch kind aims for.
type target struct {
	minSat, maxSat     float64
	minLight, maxLight float64
	sat, light         float64
}

var (
	vibrant = target{minSat: 0.35, maxSat: 1, minLight: 0.3, maxLight: 0.7, sat: 1, light: 0.5}
	muted   = target{minSat: 0, maxSat: 0.4, minLight: 0.3, maxLight: 0.7, sat: 0.3, light: 0.5}
)

func pick(swatches []Swatch, t target) *Swatch {
	maxPop := float64(swatches[0].Population)
	var best *Swatch
	bestScore := math.Inf(-1)
	for i := range swatches {
		_, s, l := swatches[i].Color.Hsl()
		if s < t.minSat || s > t.maxSat || l < t.minLight || l > t.maxLight {
			continue
		}
		score := 3*(1-math.Abs(s-t.sat)) +
			6.5*(1-math.Abs(l-t.light)) +
			0.5*float64(swatches[i].Population)/maxPop
		if score > bestScore {
			bestScore = score
			best = &swatches[i]
		}
	}
	if best == nil {
		return nil
	}
	sw := *best
	return &sw
}

// Contrast returns the WCAG contrast ratio between two colours.
func Contrast(a, b colorful.Color) float64 {
	la, lb := luminance(a), luminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

func luminance(c colorful.Color) float64 {
	r, g, b := c.Clamped().LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}
