// Package pixfmt describes the memory layout of every supported pixel format.
package pixfmt

import (
	"errors"
	"fmt"
	"strings"
)

// Format identifies a pixel format.
type Format int

const (
	YUYV Format = iota
	UYVY
	YUV422P
	YUV420P
	ARGB
	BGRA
	RGB24
	BGR24
	R210
	R10K
	V210

	FormatCount
)

// ErrUnknownFormat is returned by Parse for unrecognised names.
var ErrUnknownFormat = errors.New("pixfmt: unknown format")

var aliases = map[string]Format{
	"yuy2": YUYV,
	"i420": YUV420P,
}

// Parse maps a case-insensitive format name to its Format.
func Parse(name string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for f := Format(0); f < FormatCount; f++ {
		if strings.ToLower(descriptors[f].Name) == n {
			return f, nil
		}
	}
	if f, ok := aliases[n]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// All returns every format in declaration order.
func All() []Format {
	out := make([]Format, 0, FormatCount)
	for f := Format(0); f < FormatCount; f++ {
		out = append(out, f)
	}
	return out
}

func (f Format) String() string {
	if f < 0 || f >= FormatCount {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return descriptors[f].Name
}

// IsRGB reports whether f carries RGB samples.
func (f Format) IsRGB() bool {
	switch f {
	case ARGB, BGRA, RGB24, BGR24, R210, R10K:
		return true
	}
	return false
}

// IsYUV reports whether f carries YUV samples.
func (f Format) IsYUV() bool {
	switch f {
	case YUYV, UYVY, YUV422P, YUV420P, V210:
		return true
	}
	return false
}

// IsPlanar reports whether f stores its channels in separate planes.
func (f Format) IsPlanar() bool { return Describe(f).Planar }

// BitDepth returns the number of bits per sample.
func (f Format) BitDepth() int { return Describe(f).BitDepth }
