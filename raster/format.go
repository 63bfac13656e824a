package raster

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	pnm "github.com/jbuchbinder/gopnm"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format names a lossless output container.
type Format string

const (
	PNG  Format = "png"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	PPM  Format = "ppm"
)

// Formats lists the supported containers, default first.
var Formats = []Format{PNG, BMP, TIFF, PPM}

var extFormats = map[string]Format{
	".png":  PNG,
	".bmp":  BMP,
	".tif":  TIFF,
	".tiff": TIFF,
	".ppm":  PPM,
	".pnm":  PPM,
}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extFormats[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("cannot infer output format from %q", path)
}

// Ext is the canonical file extension, with the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}

// Encode writes img to w. Every supported format encodes deterministically,
// so equal images give equal bytes.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		enc := png.Encoder{
			CompressionLevel: png.BestCompression,
			BufferPool:       pngPool,
		}
		if err := enc.Encode(w, img); err != nil {
			return fmt.Errorf("could not encode PNG: %w", err)
		}
	case BMP:
		if err := bmp.Encode(w, img); err != nil {
			return fmt.Errorf("could not encode BMP: %w", err)
		}
	case TIFF:
		if err := tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
			return fmt.Errorf("could not encode TIFF: %w", err)
		}
	case PPM:
		if err := pnm.Encode(w, img, pnm.PPM); err != nil {
			return fmt.Errorf("could not encode PPM: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output format: %s", f)
	}
	return nil
}

// Save encodes img into a temporary file next to dest and renames it over
// dest once everything is flushed, so dest never holds a partial image.
// It returns the size of the written file.
func Save(img image.Image, f Format, dest string) (size int64, err error) {
	dir, name := filepath.Split(dest)
	if dir == "" {
		dir = "."
	}

	outFile, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("could not create temporary destination for %q: %w", dest, err)
	}
	tmpName := outFile.Name()
	closed := false
	defer func() {
		if !closed {
			if closeErr := outFile.Close(); closeErr != nil {
				slog.Error("could not close temporary destination", "name", tmpName, "error", closeErr)
			}
		}
		if err != nil {
			if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
				slog.Error("could not remove temporary destination", "name", tmpName, "error", rmErr)
			}
		}
	}()

	buf := bufio.NewWriter(outFile)
	if err = Encode(buf, img, f); err != nil {
		return 0, fmt.Errorf("could not write %q: %w", dest, err)
	}
	if err = buf.Flush(); err != nil {
		return 0, fmt.Errorf("could not write %q: %w", dest, err)
	}
	if err = outFile.Sync(); err != nil {
		return 0, fmt.Errorf("could not flush temporary destination for %q: %w", dest, err)
	}
	info, err := outFile.Stat()
	if err != nil {
		return 0, fmt.Errorf("could not stat temporary destination for %q: %w", dest, err)
	}
	if err = outFile.Chmod(0o644); err != nil {
		return 0, fmt.Errorf("could not set mode of %q: %w", dest, err)
	}

	closed = true
	if err = outFile.Close(); err != nil {
		return 0, fmt.Errorf("could not close temporary destination for %q: %w", dest, err)
	}
	if err = os.Rename(tmpName, dest); err != nil {
		return 0, fmt.Errorf("could not rename destination file %q: %w", dest, err)
	}

	slog.Debug("image written", "file", dest, "format", f, "size", humanize.IBytes(uint64(info.Size())))
	return info.Size(), nil
}

// Decode reads an image written by Save, whatever its format.
func Decode(path string) (image.Image, Format, error) {
	inFile, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("could not open image %q: %w", path, err)
	}
	defer func() {
		if closeErr := inFile.Close(); closeErr != nil {
			slog.Error("could not close image", "name", path, "error", closeErr)
		}
	}()

	img, name, err := image.Decode(bufio.NewReader(inFile))
	if err != nil {
		return nil, "", fmt.Errorf("could not decode image %q: %w", path, err)
	}

	return img, Format(name), nil
}
