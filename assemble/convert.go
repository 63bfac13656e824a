// Package assemble turns a definitions header and a pixel file into an image.
package assemble

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"pixasm/defs"
	"pixasm/pixels"
	"pixasm/raster"

	"github.com/dustin/go-humanize"
)

var ErrVerifyMismatch = errors.New("image does not match pixel data")

// Job describes one conversion.
type Job struct {
	Defs    string
	Pixels  string
	Output  string
	Format  raster.Format
	Markers defs.Markers
	Policy  pixels.Policy
	// Scale is the integer upscale factor; zero means 1.
	Scale   int
}

type Result struct {
	Dimensions defs.Dimensions
	Pixels     int
	Output     string
	Size       int64
}

func (j Job) scale() int {
	if j.Scale < 1 {
		return 1
	}
	return j.Scale
}

func (j Job) logger() *slog.Logger {
	return slog.Default().With("pixels", j.Pixels)
}

// build runs the parse stages and lays out the canvas at its native size.
func (j Job) build(logger *slog.Logger) (*image.NRGBA, defs.Dimensions, int, error) {
	d, err := defs.ReadFile(j.Defs, j.Markers)
	if err != nil {
		return nil, defs.Dimensions{}, 0, err
	}
	logger.Debug("dimensions", "defs", j.Defs, "width", d.Width, "height", d.Height)

	seq, err := pixels.ReadFile(j.Pixels, j.Policy)
	if err != nil {
		return nil, d, 0, err
	}
	logger.Debug("pixel data", "records", len(seq))

	img, err := raster.Build(d, seq)
	if err != nil {
		return nil, d, len(seq), fmt.Errorf("could not assemble %q with %q: %w", j.Pixels, j.Defs, err)
	}
	return img, d, len(seq), nil
}

// Convert reads both inputs, assembles the image and writes it to
// j.Output. Any failure aborts the run; the output is only replaced once a
// complete image has been encoded.
func Convert(j Job) (Result, error) {
	logger := j.logger()

	img, d, n, err := j.build(logger)
	if err != nil {
		return Result{}, err
	}

	out, err := raster.Scale(logger, img, j.scale())
	if err != nil {
		return Result{}, err
	}

	size, err := raster.Save(out, j.Format, j.Output)
	if err != nil {
		return Result{}, err
	}

	logger.Info("converted", "size", d, "output", j.Output, "format", j.Format, "bytes", humanize.IBytes(uint64(size)))
	return Result{Dimensions: d, Pixels: n, Output: j.Output, Size: size}, nil
}

// Verify decodes j.Output and checks it against the pixel data it was made
// from, accounting for j.Scale.
func Verify(j Job) error {
	logger := j.logger()

	want, _, _, err := j.build(logger)
	if err != nil {
		return err
	}
	got, format, err := raster.Decode(j.Output)
	if err != nil {
		return err
	}
	logger.Debug("decoded", "output", j.Output, "format", format)

	n := j.scale()
	wb := want.Bounds()
	gb := got.Bounds()
	if gb.Dx() != wb.Dx()*n || gb.Dy() != wb.Dy()*n {
		return fmt.Errorf("%w: %q is %dx%d, expected %dx%d", ErrVerifyMismatch, j.Output,
			gb.Dx(), gb.Dy(), wb.Dx()*n, wb.Dy()*n)
	}

	for y := range gb.Dy() {
		for x := range gb.Dx() {
			w := pixels.FromColor(want.At(x/n, y/n))
			g := pixels.FromColor(got.At(gb.Min.X+x, gb.Min.Y+y))
			if w != g {
				return fmt.Errorf("%w: %q at (%d, %d) is %s, expected %s", ErrVerifyMismatch, j.Output, x, y, g, w)
			}
		}
	}

	logger.Info("verified", "output", j.Output, "format", format)
	return nil
}
