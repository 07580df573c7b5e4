package convert

import (
	"github.com/rcarmo/pixconv/internal/colormatrix"
	"github.com/rcarmo/pixconv/internal/lanes"
	"github.com/rcarmo/pixconv/internal/pixfmt"
)

// inverse3 applies the inverse matrix with multiply-add over (Y, U) and
// (V, 0) lane pairs. Results are bit-exact with colormatrix.Apply.
type inverse3 struct {
	yOff, cOff lanes.Vec
	yu, vz     [3]lanes.Vec
	round      lanes.Vec
	shift      uint
}

func newInverse3(m *colormatrix.Matrix) *inverse3 {
	k := &inverse3{
		yOff:  lanes.Set1Epi16(int16(m.Offset[0])),
		cOff:  lanes.Set1Epi16(int16(m.Offset[1])),
		round: lanes.Set1Epi32(1 << (m.Shift - 1)),
		shift: m.Shift,
	}
	for i := 0; i < 3; i++ {
		var yu, vz [8]int16
		for j := 0; j < 4; j++ {
			yu[2*j], yu[2*j+1] = int16(m.Coef[i][0]), int16(m.Coef[i][1])
			vz[2*j] = int16(m.Coef[i][2])
		}
		k.yu[i], k.vz[i] = lanes.FromInt16(yu), lanes.FromInt16(vz)
	}
	return k
}

func (k *inverse3) apply(y, u, v lanes.Vec) (r, g, b lanes.Vec) {
	y = lanes.AddEpi16(y, k.yOff)
	u = lanes.AddEpi16(u, k.cOff)
	v = lanes.AddEpi16(v, k.cOff)
	yuLo, yuHi := lanes.UnpackLoEpi16(y, u), lanes.UnpackHiEpi16(y, u)
	vzLo, vzHi := lanes.UnpackLoEpi16(v, zero), lanes.UnpackHiEpi16(v, zero)
	r = k.channel(0, yuLo, yuHi, vzLo, vzHi)
	g = k.channel(1, yuLo, yuHi, vzLo, vzHi)
	b = k.channel(2, yuLo, yuHi, vzLo, vzHi)
	return r, g, b
}

func (k *inverse3) channel(i int, yuLo, yuHi, vzLo, vzHi lanes.Vec) lanes.Vec {
	lo := lanes.AddEpi32(lanes.MaddEpi16(yuLo, k.yu[i]), lanes.MaddEpi16(vzLo, k.vz[i]))
	hi := lanes.AddEpi32(lanes.MaddEpi16(yuHi, k.yu[i]), lanes.MaddEpi16(vzHi, k.vz[i]))
	lo = lanes.SraiEpi32(lanes.AddEpi32(lo, k.round), k.shift)
	hi = lanes.SraiEpi32(lanes.AddEpi32(hi, k.round), k.shift)
	return lanes.PacksEpi32(lo, hi)
}

// rgbPacker stores 8 pixels of 16-bit channel lanes with unsigned
// saturation. Alpha bytes are written as zero.
type rgbPacker interface {
	pack(row []byte, x int, r, g, b lanes.Vec, m *mem)
}

// quadPack builds 4-byte pixels with byte and word unpacks. order names the
// channel in each byte of the pixel, -1 for alpha.
type quadPack struct {
	order [4]int
}

func newQuadPack(f pixfmt.Format) quadPack {
	switch f {
	case pixfmt.ARGB:
		return quadPack{order: [4]int{-1, 0, 1, 2}}
	case pixfmt.RGB24:
		return quadPack{order: [4]int{0, 1, 2, -1}}
	}
	// BGRA, and BGR24 before compaction.
	return quadPack{order: [4]int{2, 1, 0, -1}}
}

func (p quadPack) quads(r, g, b lanes.Vec) (lo, hi lanes.Vec) {
	ch := [3]lanes.Vec{lanes.PackusEpi16(r, zero), lanes.PackusEpi16(g, zero), lanes.PackusEpi16(b, zero)}
	var bytes [4]lanes.Vec
	for i, c := range p.order {
		if c >= 0 {
			bytes[i] = ch[c]
		}
	}
	first := lanes.UnpackLoEpi8(bytes[0], bytes[1])
	second := lanes.UnpackLoEpi8(bytes[2], bytes[3])
	return lanes.UnpackLoEpi16(first, second), lanes.UnpackHiEpi16(first, second)
}

func (p quadPack) pack(row []byte, x int, r, g, b lanes.Vec, m *mem) {
	lo, hi := p.quads(r, g, b)
	m.store(row[4*x:], lo)
	m.store(row[4*x+16:], hi)
}

// compactPack drops the fourth byte of every quad with a byte shuffle and
// writes 24 bytes per group.
type compactPack struct {
	quadPack
}

var compactMask = lanes.Mask(0, 1, 2, 4, 5, 6, 8, 9, 10, 12, 13, 14)

func (p compactPack) pack(row []byte, x int, r, g, b lanes.Vec, _ *mem) {
	lo, hi := p.quads(r, g, b)
	lo = lanes.ShuffleEpi8(lo, compactMask)
	hi = lanes.ShuffleEpi8(hi, compactMask)
	off := 3 * x
	lanes.Store(row[off:], lanes.Or(lo, lanes.SlliSi128(hi, 12)))
	lanes.StoreLo64(row[off+16:], lanes.SrliSi128(hi, 4))
}

func newRGBPacker(f pixfmt.Format) rgbPacker {
	if pixfmt.Describe(f).BytesPerPixelNum == 3 {
		return compactPack{newQuadPack(f)}
	}
	return newQuadPack(f)
}
