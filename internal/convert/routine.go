package convert

import (
	"github.com/rcarmo/pixconv/internal/cpu"
	"github.com/rcarmo/pixconv/internal/lanes"
	"github.com/rcarmo/pixconv/internal/pixfmt"
)

// Routine is a candidate bound to one request. It is immutable and safe for
// concurrent use on disjoint buffers.
type Routine struct {
	Name           string
	Family         string
	Requires       cpu.Mask
	PixelMultiple  int
	HeightMultiple int
	Request        Request

	// strided is set when every plane stride of both frames is a multiple
	// of the vector width, so aligned buffers stay aligned on every row.
	strided   bool
	aligned   func(src, dst []byte)
	unaligned func(src, dst []byte)
}

func newRoutine(c *Candidate, p *plan) *Routine {
	k := c.build(p)
	return &Routine{
		Name:           c.Name,
		Family:         c.Family,
		Requires:       c.Requires,
		PixelMultiple:  c.PixelMultiple,
		HeightMultiple: c.HeightMultiple,
		Request:        p.Request,
		strided:        pixfmt.StridesMultipleOf(p.Src, p.Width, lanes.Width) && pixfmt.StridesMultipleOf(p.Dst, p.Width, lanes.Width),
		aligned:        func(src, dst []byte) { k(src, dst, &alignedMem) },
		unaligned:      func(src, dst []byte) { k(src, dst, &unalignedMem) },
	}
}

// Convert converts one frame. Buffers must hold at least the image size of
// their format; the aligned variant is used when both start on a 16-byte
// boundary and every row stride keeps them there.
func (r *Routine) Convert(src, dst []byte) {
	if r.strided && lanes.Aligned(src) && lanes.Aligned(dst) {
		r.aligned(src, dst)
		return
	}
	r.unaligned(src, dst)
}

// Vectorized reports whether the routine runs lane kernels.
func (r *Routine) Vectorized() bool { return r.Requires != cpu.None }
