// Package pixels parses the raytracer's text pixel stream: one "R G B"
// record per line, in row-major scan order.
package pixels

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

var (
	ErrMalformedRecord = errors.New("malformed pixel record")
	ErrComponentRange  = errors.New("color component out of range")
)

const (
	minComponent = 0
	maxComponent = 255
	numFields    = 3
)

// Policy decides what happens to components outside [0, 255].
type Policy int

const (
	Reject Policy = iota
	Clamp
)

var policyNames = map[Policy]string{
	Reject: "reject",
	Clamp:  "clamp",
}

func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps a policy name to its value.
func ParsePolicy(s string) (Policy, error) {
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return Reject, fmt.Errorf("unknown range policy %q", s)
}

func (p *Policy) UnmarshalText(text []byte) error {
	v, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

type Pixel struct {
	R, G, B int
}

// RGBA returns the pixel as an opaque 8-bit color. Components are expected
// to be in range already.
func (p Pixel) RGBA() color.NRGBA {
	return color.NRGBA{R: uint8(p.R), G: uint8(p.G), B: uint8(p.B), A: 0xff}
}

func (p Pixel) String() string {
	return fmt.Sprintf("%d %d %d", p.R, p.G, p.B)
}

// FromColor converts any color back into a Pixel.
func FromColor(c color.Color) Pixel {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Pixel{R: int(n.R), G: int(n.G), B: int(n.B)}
}

// Sequence holds pixels in file order, which is the raster scan order.
type Sequence []Pixel

// RecordError identifies the pixel file line that could not be used.
type RecordError struct {
	Line  int
	Text  string
	// Kind is ErrMalformedRecord or ErrComponentRange.
	Kind  error
	Cause error
}

func (e *RecordError) Error() string {
	msg := fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Kind)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RecordError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func clamp(v int) int {
	return min(max(v, minComponent), maxComponent)
}

func parseRecord(lineNo int, line string, policy Policy) (Pixel, error) {
	fields := strings.Split(line, " ")
	if len(fields) != numFields {
		return Pixel{}, &RecordError{
			Line:  lineNo,
			Text:  line,
			Kind:  ErrMalformedRecord,
			Cause: fmt.Errorf("want %d fields, got %d", numFields, len(fields)),
		}
	}

	var c [numFields]int
	for i, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil {
			return Pixel{}, &RecordError{Line: lineNo, Text: line, Kind: ErrMalformedRecord, Cause: err}
		}
		if v < minComponent || v > maxComponent {
			if policy != Clamp {
				return Pixel{}, &RecordError{
					Line:  lineNo,
					Text:  line,
					Kind:  ErrComponentRange,
					Cause: fmt.Errorf("field %d is %d", i+1, v),
				}
			}
			v = clamp(v)
		}
		c[i] = v
	}
	return Pixel{R: c[0], G: c[1], B: c[2]}, nil
}

// Parse reads one pixel per non-empty line of r. An empty input yields an
// empty sequence.
func Parse(r io.Reader, policy Policy) (Sequence, error) {
	var seq Sequence

	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, err := parseRecord(lineNo, line, policy)
		if err != nil {
			return nil, err
		}
		seq = append(seq, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("could not read pixel data: %w", err)
	}
	return seq, nil
}

// ReadFile parses the pixel file at path.
func ReadFile(path string, policy Policy) (Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open pixel file %q: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("could not close pixel file", "name", path, "error", closeErr)
		}
	}()

	seq, err := Parse(f, policy)
	if err != nil {
		return nil, fmt.Errorf("invalid pixel file %q: %w", path, err)
	}
	return seq, nil
}
