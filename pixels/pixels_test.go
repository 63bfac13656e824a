package pixels

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Sequence
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "red green",
			input: "255 0 0\n0 255 0\n",
			want:  Sequence{{255, 0, 0}, {0, 255, 0}},
		},
		{
			name:  "no trailing newline",
			input: "1 2 3\n4 5 6",
			want:  Sequence{{1, 2, 3}, {4, 5, 6}},
		},
		{
			name:  "blank lines skipped",
			input: "\n1 2 3\n\n   \n4 5 6\n\n",
			want:  Sequence{{1, 2, 3}, {4, 5, 6}},
		},
		{
			name:  "crlf",
			input: "7 8 9\r\n10 11 12\r\n",
			want:  Sequence{{7, 8, 9}, {10, 11, 12}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tc.input), Reject)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParsePreservesOrder(t *testing.T) {
	var sb strings.Builder
	for i := range 256 {
		sb.WriteString(strconv.Itoa(i) + " " + strconv.Itoa(255-i) + " " + strconv.Itoa(i/2) + "\n")
	}

	seq, err := Parse(strings.NewReader(sb.String()), Reject)
	require.NoError(t, err)
	require.Len(t, seq, 256)
	for i, p := range seq {
		assert.Equal(t, Pixel{i, 255 - i, i / 2}, p)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"two integers", "1 2 3\n4 5\n6 7 8\n", 2},
		{"four integers", "1 2 3 4\n", 1},
		{"not an integer", "1 2 3\n\n1 x 3\n", 3},
		{"float component", "127.5 0 0\n", 1},
		{"double space", "1  2 3\n", 1},
		{"tab separated", "1\t2\t3\n", 1},
		{"leading space", " 1 2 3\n", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input), Reject)
			require.ErrorIs(t, err, ErrMalformedRecord)

			var recErr *RecordError
			require.True(t, errors.As(err, &recErr))
			assert.Equal(t, tc.line, recErr.Line)
			assert.Contains(t, err.Error(), "line "+strconv.Itoa(tc.line))
		})
	}
}

func TestParseRange(t *testing.T) {
	input := "0 0 0\n256 -1 12\n"

	_, err := Parse(strings.NewReader(input), Reject)
	require.ErrorIs(t, err, ErrComponentRange)
	assert.NotErrorIs(t, err, ErrMalformedRecord)
	var recErr *RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, 2, recErr.Line)

	seq, err := Parse(strings.NewReader(input), Clamp)
	require.NoError(t, err)
	assert.Equal(t, Sequence{{0, 0, 0}, {255, 0, 12}}, seq)
}

func TestPolicy(t *testing.T) {
	for _, p := range []Policy{Reject, Clamp} {
		got, err := ParsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	var p Policy
	require.NoError(t, p.UnmarshalText([]byte("clamp")))
	assert.Equal(t, Clamp, p)
	require.Error(t, p.UnmarshalText([]byte("wrap")))
	assert.Equal(t, "Policy(7)", Policy(7).String())
}

func TestPixelColor(t *testing.T) {
	p := Pixel{R: 10, G: 20, B: 30}
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 0xff}, p.RGBA())
	assert.Equal(t, p, FromColor(p.RGBA()))
	assert.Equal(t, p, FromColor(color.RGBA{R: 10, G: 20, B: 30, A: 0xff}))
	assert.Equal(t, "10 20 30", p.String())
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "op")
	require.NoError(t, os.WriteFile(path, []byte("255 0 0\n0 255 0\n"), 0o644))

	seq, err := ReadFile(path, Reject)
	require.NoError(t, err)
	assert.Len(t, seq, 2)

	_, err = ReadFile(filepath.Join(dir, "nope"), Reject)
	require.ErrorIs(t, err, os.ErrNotExist)
}
