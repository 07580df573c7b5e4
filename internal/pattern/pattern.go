// Package pattern generates deterministic test frames in any pixel format.
package pattern

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/rcarmo/pixconv/internal/colormatrix"
	"github.com/rcarmo/pixconv/internal/convert"
	"github.com/rcarmo/pixconv/internal/pixfmt"
)

// Kind selects the picture content.
type Kind int

const (
	// Gray is a flat mid-gray frame.
	Gray Kind = iota
	// Gradient ramps red left to right, green top to bottom and blue
	// against red.
	Gradient
	// Bars are eight vertical 75% colour bars.
	Bars
	// Random is seeded noise.
	Random
)

var kindNames = [...]string{Gray: "gray", Gradient: "gradient", Bars: "bars", Random: "random"}

func (k Kind) String() string {
	if k < Gray || k > Random {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Pattern is a kind plus the seed Random uses.
type Pattern struct {
	Kind Kind
	Seed int64
}

// Parse reads "gray", "gradient", "bars" or "random[:seed]".
func Parse(s string) (Pattern, error) {
	name, seed, hasSeed := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	for k, n := range kindNames {
		if n != name {
			continue
		}
		p := Pattern{Kind: Kind(k), Seed: 1}
		if hasSeed {
			if _, err := fmt.Sscan(seed, &p.Seed); err != nil {
				return Pattern{}, fmt.Errorf("pattern: bad seed %q", seed)
			}
		}
		return p, nil
	}
	return Pattern{}, fmt.Errorf("pattern: unknown pattern %q", s)
}

func (p Pattern) String() string {
	if p.Kind == Random {
		return fmt.Sprintf("random:%d", p.Seed)
	}
	return p.Kind.String()
}

var bars = [8][3]byte{
	{191, 191, 191},
	{191, 191, 0},
	{0, 191, 191},
	{0, 191, 0},
	{191, 0, 191},
	{191, 0, 0},
	{0, 0, 191},
	{0, 0, 0},
}

// ARGB renders the pattern as a width x height ARGB frame with opaque
// alpha.
func ARGB(width, height int, p Pattern) []byte {
	buf := make([]byte, pixfmt.ImageSize(pixfmt.ARGB, width, height))
	rng := rand.New(rand.NewSource(p.Seed))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			px := buf[4*(y*width+x):]
			px[0] = 0xff
			switch p.Kind {
			case Gray:
				px[1], px[2], px[3] = 128, 128, 128
			case Gradient:
				r := ramp(x, width)
				px[1], px[2], px[3] = r, ramp(y, height), 255-r
			case Bars:
				c := bars[x*len(bars)/width]
				px[1], px[2], px[3] = c[0], c[1], c[2]
			case Random:
				v := rng.Uint32()
				px[1], px[2], px[3] = byte(v), byte(v>>8), byte(v>>16)
			}
		}
	}
	return buf
}

func ramp(i, n int) byte {
	if n < 2 {
		return 0
	}
	return byte(i * 255 / (n - 1))
}

// Fill renders the pattern into buf as a frame in format f. YUV formats are
// encoded with std.
func Fill(f pixfmt.Format, buf []byte, width, height int, p Pattern, std colormatrix.Standard) error {
	if need := pixfmt.ImageSize(f, width, height); len(buf) < need {
		return fmt.Errorf("%w: %d bytes for a %dx%d %s frame of %d", convert.ErrBufferTooSmall, len(buf), width, height, f, need)
	}
	src := ARGB(width, height, p)
	if f == pixfmt.ARGB {
		copy(buf, src)
		return nil
	}
	r, err := convert.Default().Resolve(convert.Request{
		Src: pixfmt.ARGB, Dst: f,
		Width: width, Height: height,
		Standard: std,
	})
	if err != nil {
		return fmt.Errorf("pattern: %w", err)
	}
	r.Convert(src, buf)
	return nil
}

// New allocates and fills a frame.
func New(f pixfmt.Format, width, height int, p Pattern, std colormatrix.Standard) ([]byte, error) {
	buf := make([]byte, pixfmt.ImageSize(f, width, height))
	if err := Fill(f, buf, width, height, p, std); err != nil {
		return nil, err
	}
	return buf, nil
}
