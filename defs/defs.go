// Package defs reads canvas dimensions out of a C-style definitions header.
package defs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

var ErrMissingDimension = errors.New("missing dimension")

// Markers are the line prefixes that declare the width and the height.
type Markers struct {
	Width  string
	Height string
}

// DefaultMarkers matches the raytracer's Parameters.h.
var DefaultMarkers = Markers{
	Width:  "#define C_W",
	Height: "#define C_H",
}

type Dimensions struct {
	Width  int
	Height int
}

func (d Dimensions) Pixels() int {
	return d.Width * d.Height
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// valueField is the index of the token holding the value on a marker line.
const valueField = 2

type dimension struct {
	name   string
	marker []string
	value  int
	found  bool
	err    error
}

func (d *dimension) match(lineNo int, fields []string) {
	if len(fields) < len(d.marker) {
		return
	}
	for i, tok := range d.marker {
		if fields[i] != tok {
			return
		}
	}

	if len(fields) <= valueField {
		d.err = fmt.Errorf("%w: %s on line %d has no value", ErrMissingDimension, d.name, lineNo)
		return
	}
	v, err := strconv.Atoi(fields[valueField])
	if err != nil {
		d.err = fmt.Errorf("%w: %s on line %d: %w", ErrMissingDimension, d.name, lineNo, err)
		return
	}
	if v < 1 {
		d.err = fmt.Errorf("%w: %s on line %d is not positive: %d", ErrMissingDimension, d.name, lineNo, v)
		return
	}
	d.value, d.found, d.err = v, true, nil
}

func (d *dimension) result() (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	if !d.found {
		return 0, fmt.Errorf("%w: no %s line starting with %q", ErrMissingDimension, d.name, strings.Join(d.marker, " "))
	}
	return d.value, nil
}

// Parse scans r for the width and height marker lines. The last
// occurrence of a marker wins; all other lines are ignored.
func Parse(r io.Reader, m Markers) (Dimensions, error) {
	width := &dimension{name: "width", marker: strings.Fields(m.Width)}
	height := &dimension{name: "height", marker: strings.Fields(m.Height)}
	if len(width.marker) == 0 || len(height.marker) == 0 {
		return Dimensions{}, fmt.Errorf("empty dimension marker: width %q, height %q", m.Width, m.Height)
	}

	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		fields := strings.Fields(sc.Text())
		width.match(lineNo, fields)
		height.match(lineNo, fields)
	}
	if err := sc.Err(); err != nil {
		return Dimensions{}, fmt.Errorf("could not read definitions: %w", err)
	}

	var d Dimensions
	var err error
	if d.Width, err = width.result(); err != nil {
		return Dimensions{}, err
	}
	if d.Height, err = height.result(); err != nil {
		return Dimensions{}, err
	}
	return d, nil
}

// ReadFile parses the definitions file at path.
func ReadFile(path string, m Markers) (Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dimensions{}, fmt.Errorf("could not open definitions file %q: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("could not close definitions file", "name", path, "error", closeErr)
		}
	}()

	d, err := Parse(f, m)
	if err != nil {
		return Dimensions{}, fmt.Errorf("invalid definitions file %q: %w", path, err)
	}
	return d, nil
}
