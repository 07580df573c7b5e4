package convert

import (
	"fmt"
	"strings"

	"github.com/rcarmo/pixconv/internal/colormatrix"
	"github.com/rcarmo/pixconv/internal/pixfmt"
)

// Resampling selects the chroma filter.
type Resampling int

const (
	// Average is the 3-tap filter on the way down and linear interpolation
	// on the way up.
	Average Resampling = iota
	// Nearest duplicates or drops chroma samples.
	Nearest
)

func (r Resampling) String() string {
	switch r {
	case Average:
		return "avg"
	case Nearest:
		return "nnb"
	}
	return fmt.Sprintf("Resampling(%d)", int(r))
}

// ParseResampling accepts "avg"/"average" and "nnb"/"nearest".
func ParseResampling(s string) (Resampling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "avg", "average":
		return Average, nil
	case "nnb", "nearest":
		return Nearest, nil
	}
	return 0, fmt.Errorf("convert: unknown resampling %q", s)
}

// Flags restrict routine selection.
type Flags uint

const (
	// NoSIMD selects the scalar routine regardless of capabilities.
	NoSIMD Flags = 1 << iota
	// BaselineOnly limits selection to candidates that need at most SSE2.
	BaselineOnly
)

// Request is everything the selector needs to pick a routine. It is
// comparable and used as the memo key.
type Request struct {
	Src, Dst   pixfmt.Format
	Width      int
	Height     int
	Standard   colormatrix.Standard
	Resampling Resampling
	Flags      Flags
}

func (r Request) String() string {
	return fmt.Sprintf("%s->%s %dx%d %s/%s", r.Src, r.Dst, r.Width, r.Height, r.Standard, r.Resampling)
}

// Validate checks the request against both formats' geometry.
func (r Request) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, r.Width, r.Height)
	}
	if !r.Standard.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownStandard, int(r.Standard))
	}
	for _, f := range []pixfmt.Format{r.Src, r.Dst} {
		d := pixfmt.Describe(f)
		if r.Width%d.WidthMultiple != 0 || r.Height%d.HeightMultiple != 0 {
			return fmt.Errorf("%w: %s needs %dx%d multiples, got %dx%d",
				ErrOddDimensions, f, d.WidthMultiple, d.HeightMultiple, r.Width, r.Height)
		}
	}
	return nil
}

// plan is a validated request with its descriptors looked up.
type plan struct {
	Request
	srcDesc pixfmt.Descriptor
	dstDesc pixfmt.Descriptor
}

func newPlan(r Request) *plan {
	return &plan{Request: r, srcDesc: pixfmt.Describe(r.Src), dstDesc: pixfmt.Describe(r.Dst)}
}

func (p *plan) average() bool { return p.Resampling == Average }
