package raster

import (
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/image/draw"
)

// Scale enlarges img by an integer factor with nearest-neighbour sampling,
// so every source pixel becomes an n x n block of the same color.
func Scale(logger *slog.Logger, img *image.NRGBA, n int) (*image.NRGBA, error) {
	if n < 1 {
		return nil, fmt.Errorf("invalid scale factor: %d", n)
	}
	if n == 1 {
		return img, nil
	}

	src := img.Bounds()
	if src.Dx() > maxPixels/n/n/max(src.Dy(), 1) {
		return nil, fmt.Errorf("%w: %dx%d scaled by %d exceeds %d pixels", ErrCanvasSize, src.Dx(), src.Dy(), n, maxPixels)
	}

	dest := image.NewNRGBA(image.Rect(0, 0, src.Dx()*n, src.Dy()*n))
	logger.Info("scaling", "factor", n, "width", dest.Rect.Dx(), "height", dest.Rect.Dy())
	draw.NearestNeighbor.Scale(dest, dest.Bounds(), img, src, draw.Src, nil)
	return dest, nil
}
