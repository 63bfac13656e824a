package assemble

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"pixasm/defs"
	"pixasm/parallel"
	"pixasm/pixels"
	"pixasm/raster"

	"github.com/alecthomas/kong"
)

// Options are shared by every command.
type Options struct {
	Defs         string        `help:"Header defining the canvas width and height" default:"Parameters.h" type:"path"`
	WidthMarker  string        `help:"Line prefix declaring the width" default:"#define C_W" group:"definitions"`
	HeightMarker string        `help:"Line prefix declaring the height" default:"#define C_H" group:"definitions"`
	RangePolicy  pixels.Policy `help:"Components outside 0-255: reject or clamp" default:"reject"`
	Scale        int           `help:"Enlarge the image by this integer factor" default:"1"`
}

func (o *Options) validate() error {
	if strings.TrimSpace(o.WidthMarker) == "" || strings.TrimSpace(o.HeightMarker) == "" {
		return fmt.Errorf("dimension markers cannot be empty")
	}
	if o.Scale < 1 {
		return fmt.Errorf("invalid scale factor: %d", o.Scale)
	}
	return nil
}

func (o *Options) job(pixelFile, output string, f raster.Format) Job {
	return Job{
		Defs:    o.Defs,
		Pixels:  pixelFile,
		Output:  output,
		Format:  f,
		Markers: defs.Markers{Width: o.WidthMarker, Height: o.HeightMarker},
		Policy:  o.RangePolicy,
		Scale:   o.Scale,
	}
}

func resolveFormat(name, output string) (raster.Format, error) {
	if name == "auto" {
		return raster.FormatFromPath(output)
	}
	return raster.ParseFormat(name)
}

type ConvertCmd struct {
	Options
	Pixels string `help:"Pixel data, one \"R G B\" line per pixel" default:"op" type:"path"`
	Output string `help:"Image to write" short:"o" default:"op.png" type:"path"`
	Format string `help:"Output format; auto picks it from the output extension" enum:"auto,png,bmp,tiff,ppm" default:"auto"`

	OutFormat raster.Format `kong:"-"`
}

func (c *ConvertCmd) Validate(kctx *kong.Context) error {
	if err := c.Options.validate(); err != nil {
		return err
	}
	var err error
	if c.OutFormat, err = resolveFormat(c.Format, c.Output); err != nil {
		return err
	}
	return nil
}

func (c *ConvertCmd) Run() error {
	_, err := Convert(c.job(c.Pixels, c.Output, c.OutFormat))
	return err
}

type VerifyCmd struct {
	Options
	Pixels string `help:"Pixel data the image was made from" default:"op" type:"path"`
	Output string `help:"Image to check" short:"o" default:"op.png" type:"path"`
}

func (c *VerifyCmd) Validate(kctx *kong.Context) error {
	return c.Options.validate()
}

func (c *VerifyCmd) Run() error {
	return Verify(c.job(c.Pixels, c.Output, ""))
}

type BatchCmd struct {
	Options
	Scan    string `help:"Source folder holding pixel files" default:"."`
	Match   string `help:"Glob selecting pixel files in the source folder" default:"*.txt"`
	Dest    string `help:"Destination folder for images. Relative to scan dir if not absolute." default:"images"`
	Format  string `help:"Output format" enum:"png,bmp,tiff,ppm" default:"png"`
	Workers int    `help:"Parallel conversions, 0 for one per CPU" default:"0"`

	OutFormat raster.Format `kong:"-"`
}

func (c *BatchCmd) Validate(kctx *kong.Context) error {
	if err := c.Options.validate(); err != nil {
		return err
	}

	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	if _, err := filepath.Match(c.Match, ""); err != nil {
		return fmt.Errorf("invalid match pattern %q: %w", c.Match, err)
	}

	if c.OutFormat, err = raster.ParseFormat(c.Format); err != nil {
		return err
	}
	return nil
}

// outputName swaps the pixel file's extension for the image format's.
func outputName(pixelFile string, f raster.Format) string {
	base := filepath.Base(pixelFile)
	return strings.TrimSuffix(base, filepath.Ext(base)) + f.Ext()
}

func (c *BatchCmd) Run() error {
	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	pool := parallel.Start(c.Workers)
	var errCount atomic.Uint64
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(c.Match, file.Name()); !ok {
			continue
		}

		job := c.job(filepath.Join(c.Scan, file.Name()), filepath.Join(c.Dest, outputName(file.Name(), c.OutFormat)), c.OutFormat)
		pool.Go(func() error {
			if _, err := Convert(job); err != nil {
				errCount.Add(1)
				slog.Error("could not convert pixel file", "file", job.Pixels, "error", err)
				return err
			}
			return nil
		})
	}

	done, err := pool.Wait()
	errors := errCount.Load()
	slog.Info("stats", "processed", uint64(done)-errors, "errors", errors, "total", done)

	if err != nil {
		return fmt.Errorf("error processing %d files: %w", errors, err)
	}
	return nil
}
