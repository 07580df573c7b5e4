package convert

import (
	"github.com/rcarmo/pixconv/internal/colormatrix"
	"github.com/rcarmo/pixconv/internal/lanes"
	"github.com/rcarmo/pixconv/internal/pixfmt"
)

// groupPixels is the number of pixels every lane kernel handles per step.
const groupPixels = 8

var (
	zero     lanes.Vec
	lo16     = lanes.Set1Epi32(0xffff)
	lowBytes = lanes.Set1Epi16(0x00ff)
)

// decomposition is one way of splitting 8 RGB pixels into lanes and
// carrying them through downsampling and the forward matrix. G is the
// group representation and C the averaging filter's carried state.
type decomposition[G, C any] interface {
	unpack(row []byte, x int, m *mem) G
	// start synthesizes the carry for the first group of a row, using the
	// first pixel as its own left neighbour.
	start(g G) C
	luma(g G) lanes.Vec
	// downsample returns the reduced group and the carry for the next one.
	downsample(g G, c C, avg bool) (G, C)
	average(a, b G) G
	chroma(d G) (u, v lanes.Vec)
}

// rgbGroup holds 8 pixels as one vector of 16-bit lanes per channel.
type rgbGroup struct{ r, g, b lanes.Vec }

// carry3 is the last odd pixel of the previous group, per channel.
type carry3 [3]int

// shuffle3 gathers each channel with a byte shuffle. It serves every 8-bit
// RGB format, 24-bit ones included.
type shuffle3 struct {
	bpp  int
	hi   int // offset of the second load
	lo   [3]lanes.Vec
	up   [3]lanes.Vec
	wide bool
	fwd  *forward3
}

func newShuffle3(f pixfmt.Format, m *colormatrix.Matrix) *shuffle3 {
	bpp := pixfmt.Describe(f).BytesPerPixelNum
	s := &shuffle3{bpp: bpp, hi: 8*bpp - 16, wide: bpp == 4}
	off := channelOffsets(f)
	for c := 0; c < 3; c++ {
		lo, up := lanes.Mask(), lanes.Mask()
		for i := 0; i < 4; i++ {
			lo[2*i] = byte(bpp*i + off[c])
			up[2*(i+4)] = byte(bpp*(i+4) + off[c] - s.hi)
		}
		s.lo[c], s.up[c] = lo, up
	}
	if m != nil {
		s.fwd = newForward3(m)
	}
	return s
}

func (s *shuffle3) unpack(row []byte, x int, m *mem) rgbGroup {
	off := x * s.bpp
	var a, b lanes.Vec
	if s.wide {
		a, b = m.load(row[off:]), m.load(row[off+16:])
	} else {
		a, b = lanes.Load(row[off:]), lanes.Load(row[off+s.hi:])
	}
	return rgbGroup{
		r: lanes.Or(lanes.ShuffleEpi8(a, s.lo[0]), lanes.ShuffleEpi8(b, s.up[0])),
		g: lanes.Or(lanes.ShuffleEpi8(a, s.lo[1]), lanes.ShuffleEpi8(b, s.up[1])),
		b: lanes.Or(lanes.ShuffleEpi8(a, s.lo[2]), lanes.ShuffleEpi8(b, s.up[2])),
	}
}

func (s *shuffle3) start(g rgbGroup) carry3 {
	return carry3{lanes.ExtractEpi16(g.r, 0), lanes.ExtractEpi16(g.g, 0), lanes.ExtractEpi16(g.b, 0)}
}

func (s *shuffle3) luma(g rgbGroup) lanes.Vec { return s.fwd.luma(g) }

func (s *shuffle3) downsample(g rgbGroup, c carry3, avg bool) (rgbGroup, carry3) {
	var d rgbGroup
	d.r, c[0] = downsampleLanes(g.r, c[0], avg)
	d.g, c[1] = downsampleLanes(g.g, c[1], avg)
	d.b, c[2] = downsampleLanes(g.b, c[2], avg)
	return d, c
}

func (s *shuffle3) average(a, b rgbGroup) rgbGroup {
	return rgbGroup{
		r: lanes.AvgEpu16(a.r, b.r),
		g: lanes.AvgEpu16(a.g, b.g),
		b: lanes.AvgEpu16(a.b, b.b),
	}
}

func (s *shuffle3) chroma(d rgbGroup) (u, v lanes.Vec) { return s.fwd.chroma(d) }

// downsampleLanes reduces 8 samples to 4 in lanes 0..3 and returns the
// carry for the following group.
func downsampleLanes(v lanes.Vec, carry int, avg bool) (lanes.Vec, int) {
	even := lanes.PacksEpi32(lanes.And(v, lo16), zero)
	if !avg {
		return even, carry
	}
	odd := lanes.PacksEpi32(lanes.SrliEpi32(v, 16), zero)
	prev := lanes.MoveLo64(lanes.InsertEpi16(lanes.SlliSi128(odd, 2), carry, 0))
	t := lanes.SrliEpi16(lanes.AddEpi16(prev, odd), 1)
	return lanes.SrliEpi16(lanes.AddEpi16(t, even), 1), lanes.ExtractEpi16(odd, 3)
}

// forward3 applies the forward matrix to per-channel lanes. Operands are
// pre-shifted left by 7 so the high half of each 16x16 product keeps
// Shift-9 fractional bits; the luma terms are unsigned.
type forward3 struct {
	cy, cu, cv [3]lanes.Vec
	yBias      lanes.Vec
	cBias      lanes.Vec
	post       uint
}

const preShift = 7

func newForward3(m *colormatrix.Matrix) *forward3 {
	if m.Shift <= 16-preShift {
		panic("convert: forward matrix shift too small for 16-bit lanes")
	}
	k := &forward3{post: m.Shift - (16 - preShift)}
	for j := 0; j < 3; j++ {
		k.cy[j] = lanes.Set1Epi16(int16(m.Coef[0][j]))
		k.cu[j] = lanes.Set1Epi16(int16(m.Coef[1][j]))
		k.cv[j] = lanes.Set1Epi16(int16(m.Coef[2][j]))
	}
	round := int32(1) << (k.post - 1)
	k.yBias = lanes.Set1Epi16(int16(m.Offset[0]<<k.post + round))
	k.cBias = lanes.Set1Epi16(int16(m.Offset[1]<<k.post + round))
	return k
}

func (k *forward3) luma(g rgbGroup) lanes.Vec {
	r := lanes.MulhiEpu16(lanes.SlliEpi16(g.r, preShift), k.cy[0])
	gg := lanes.MulhiEpu16(lanes.SlliEpi16(g.g, preShift), k.cy[1])
	b := lanes.MulhiEpu16(lanes.SlliEpi16(g.b, preShift), k.cy[2])
	sum := lanes.AddEpi16(lanes.AddEpi16(r, gg), lanes.AddEpi16(b, k.yBias))
	return lanes.SrliEpi16(sum, k.post)
}

func (k *forward3) chroma(d rgbGroup) (u, v lanes.Vec) {
	r := lanes.SlliEpi16(d.r, preShift)
	g := lanes.SlliEpi16(d.g, preShift)
	b := lanes.SlliEpi16(d.b, preShift)
	return k.signed(&k.cu, r, g, b), k.signed(&k.cv, r, g, b)
}

func (k *forward3) signed(c *[3]lanes.Vec, r, g, b lanes.Vec) lanes.Vec {
	sum := lanes.AddEpi16(lanes.MulhiEpi16(r, c[0]), lanes.MulhiEpi16(g, c[1]))
	sum = lanes.AddEpi16(sum, lanes.MulhiEpi16(b, c[2]))
	return lanes.SraiEpi16(lanes.AddEpi16(sum, k.cBias), k.post)
}

// pairGroup holds 8 pixels as four vectors of two pixels each, channels in
// memory order widened to 16 bits.
type pairGroup [4]lanes.Vec

// interleave2 widens 32-bit pixels with byte unpacks and evaluates the
// matrix with multiply-add over channel pairs. Results are bit-exact.
type interleave2 struct {
	ky, ku, kv lanes.Vec
	round      lanes.Vec
	shift      uint
	yOff, cOff lanes.Vec
}

func newInterleave2(f pixfmt.Format, m *colormatrix.Matrix) *interleave2 {
	off := channelOffsets(f)
	coef := func(row int) lanes.Vec {
		var c [8]int16
		for j := 0; j < 3; j++ {
			c[off[j]] = int16(m.Coef[row][j])
			c[off[j]+4] = int16(m.Coef[row][j])
		}
		return lanes.FromInt16(c)
	}
	return &interleave2{
		ky:    coef(0),
		ku:    coef(1),
		kv:    coef(2),
		round: lanes.Set1Epi32(1 << (m.Shift - 1)),
		shift: m.Shift,
		yOff:  lanes.Set1Epi16(int16(m.Offset[0])),
		cOff:  lanes.Set1Epi16(int16(m.Offset[1])),
	}
}

func (s *interleave2) unpack(row []byte, x int, m *mem) pairGroup {
	a, b := m.load(row[4*x:]), m.load(row[4*x+16:])
	return pairGroup{
		lanes.UnpackLoEpi8(a, zero),
		lanes.UnpackHiEpi8(a, zero),
		lanes.UnpackLoEpi8(b, zero),
		lanes.UnpackHiEpi8(b, zero),
	}
}

func (s *interleave2) start(g pairGroup) lanes.Vec { return g[0] }

func (s *interleave2) luma(g pairGroup) lanes.Vec {
	lo := s.finish(dot(g[0], g[1], s.ky))
	hi := s.finish(dot(g[2], g[3], s.ky))
	return lanes.AddEpi16(lanes.PacksEpi32(lo, hi), s.yOff)
}

// downsample leaves chroma source k in the low half of element k. The
// carry holds the previous group's last pixel in its low half.
func (s *interleave2) downsample(g pairGroup, c lanes.Vec, avg bool) (pairGroup, lanes.Vec) {
	if !avg {
		return g, c
	}
	var d pairGroup
	prev := c
	for i := range g {
		next := lanes.SrliSi128(g[i], 8)
		t := lanes.SrliEpi16(lanes.AddEpi16(prev, next), 1)
		d[i] = lanes.SrliEpi16(lanes.AddEpi16(t, g[i]), 1)
		prev = next
	}
	return d, prev
}

func (s *interleave2) average(a, b pairGroup) pairGroup {
	var d pairGroup
	for i := range a {
		d[i] = lanes.AvgEpu16(a[i], b[i])
	}
	return d
}

func (s *interleave2) chroma(d pairGroup) (u, v lanes.Vec) {
	lo := lanes.UnpackLoEpi64(d[0], d[1])
	hi := lanes.UnpackLoEpi64(d[2], d[3])
	u = lanes.PacksEpi32(s.finish(dot(lo, hi, s.ku)), zero)
	v = lanes.PacksEpi32(s.finish(dot(lo, hi, s.kv)), zero)
	return lanes.AddEpi16(u, s.cOff), lanes.AddEpi16(v, s.cOff)
}

func (s *interleave2) finish(sum lanes.Vec) lanes.Vec {
	return lanes.SraiEpi32(lanes.AddEpi32(sum, s.round), s.shift)
}

// dot returns the four per-pixel dot products of two 2-pixel vectors with
// coef, as 32-bit lanes in pixel order.
func dot(a, b, coef lanes.Vec) lanes.Vec {
	return lanes.UnpackLoEpi64(
		lanes.ShuffleEpi32(hadd(lanes.MaddEpi16(a, coef)), 0x08),
		lanes.ShuffleEpi32(hadd(lanes.MaddEpi16(b, coef)), 0x08),
	)
}

// hadd folds each 64-bit half: lane 0 and lane 2 receive the pair sums.
func hadd(m lanes.Vec) lanes.Vec {
	return lanes.AddEpi32(m, lanes.SrliEpi64(m, 32))
}
