// Package raster lays a pixel sequence out on a canvas and writes it in a
// lossless image container.
package raster

import (
	"errors"
	"fmt"
	"image"

	"pixasm/defs"
	"pixasm/pixels"
)

// maxPixels bounds the canvas so width*height cannot overflow and a bogus
// header cannot ask for an absurd allocation.
const maxPixels = 400_000_000

var (
	ErrPixelCountMismatch = errors.New("pixel count mismatch")
	ErrCanvasSize         = errors.New("invalid canvas size")
)

// CountError reports a pixel sequence that does not fill the canvas exactly.
type CountError struct {
	Expected int
	Actual   int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("%v: expected %d pixels, got %d", ErrPixelCountMismatch, e.Expected, e.Actual)
}

func (e *CountError) Unwrap() error {
	return ErrPixelCountMismatch
}

func checkCanvas(d defs.Dimensions) error {
	switch {
	case d.Width < 1 || d.Height < 1:
		return fmt.Errorf("%w: %s", ErrCanvasSize, d)
	case d.Width > maxPixels/d.Height:
		return fmt.Errorf("%w: %s exceeds %d pixels", ErrCanvasSize, d, maxPixels)
	}
	return nil
}

// Build places seq on a d.Width x d.Height canvas in row-major order: element
// i lands on (i % width, i / width). The sequence must cover the canvas
// exactly; it is never truncated or padded.
func Build(d defs.Dimensions, seq pixels.Sequence) (*image.NRGBA, error) {
	if err := checkCanvas(d); err != nil {
		return nil, err
	}
	if want := d.Pixels(); len(seq) != want {
		return nil, &CountError{Expected: want, Actual: len(seq)}
	}

	img := image.NewNRGBA(image.Rect(0, 0, d.Width, d.Height))
	for i, p := range seq {
		img.SetNRGBA(i%d.Width, i/d.Width, p.RGBA())
	}
	return img, nil
}

// Flatten reads img back into a pixel sequence in row-major order.
func Flatten(img image.Image) pixels.Sequence {
	b := img.Bounds()
	seq := make(pixels.Sequence, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			seq = append(seq, pixels.FromColor(img.At(x, y)))
		}
	}
	return seq
}
