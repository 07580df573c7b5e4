package convert

import (
	"github.com/rcarmo/pixconv/internal/lanes"
	"github.com/rcarmo/pixconv/internal/pixfmt"
)

// yuvUnpacker loads 8 pixels of an 8-bit YUV row: y in 16-bit lanes 0..7,
// u and v in lanes 0..3.
type yuvUnpacker interface {
	unpack(r yuvRow, x int, m *mem) (y, u, v lanes.Vec)
}

// yuvPacker stores 8 pixels. Chroma is written only when chroma is set,
// which lets 4:2:0 kernels emit the second row of a pair as luma only.
type yuvPacker interface {
	pack(r yuvRow, x int, y, u, v lanes.Vec, chroma bool, m *mem)
}

// maskUnpack splits packed 4:2:2 bytes with AND and shifts.
type maskUnpack struct {
	uyvy bool
}

func (p maskUnpack) unpack(r yuvRow, x int, m *mem) (y, u, v lanes.Vec) {
	src := m.load(r.y[2*x:])
	var c lanes.Vec
	if p.uyvy {
		y, c = lanes.SrliEpi16(src, 8), lanes.And(src, lowBytes)
	} else {
		y, c = lanes.And(src, lowBytes), lanes.SrliEpi16(src, 8)
	}
	u = lanes.PacksEpi32(lanes.And(c, lo16), zero)
	v = lanes.PacksEpi32(lanes.SrliEpi32(c, 16), zero)
	return y, u, v
}

// shuffleUnpack splits packed 4:2:2 bytes with one byte shuffle per plane.
type shuffleUnpack struct {
	ky, ku, kv lanes.Vec
}

func newShuffleUnpack(f pixfmt.Format) *shuffleUnpack {
	yOff, uOff, vOff := 0, 1, 3
	if f == pixfmt.UYVY {
		yOff, uOff, vOff = 1, 0, 2
	}
	s := &shuffleUnpack{ky: lanes.Mask(), ku: lanes.Mask(), kv: lanes.Mask()}
	for i := 0; i < 8; i++ {
		s.ky[2*i] = byte(2*i + yOff)
	}
	for k := 0; k < 4; k++ {
		s.ku[2*k] = byte(4*k + uOff)
		s.kv[2*k] = byte(4*k + vOff)
	}
	return s
}

func (p *shuffleUnpack) unpack(r yuvRow, x int, m *mem) (y, u, v lanes.Vec) {
	src := m.load(r.y[2*x:])
	return lanes.ShuffleEpi8(src, p.ky), lanes.ShuffleEpi8(src, p.ku), lanes.ShuffleEpi8(src, p.kv)
}

// planarUnpack widens partial loads from the three planes.
type planarUnpack struct{}

func (planarUnpack) unpack(r yuvRow, x int, _ *mem) (y, u, v lanes.Vec) {
	k := x >> 1
	y = lanes.UnpackLoEpi8(lanes.LoadLo64(r.y[x:]), zero)
	u = lanes.UnpackLoEpi8(lanes.Load32(r.u[k:]), zero)
	v = lanes.UnpackLoEpi8(lanes.Load32(r.v[k:]), zero)
	return y, u, v
}

// interleavePack narrows and interleaves with byte unpacks.
type interleavePack struct {
	uyvy bool
}

func (p interleavePack) pack(r yuvRow, x int, y, u, v lanes.Vec, _ bool, m *mem) {
	yb := lanes.PackusEpi16(y, zero)
	cb := lanes.PackusEpi16(lanes.UnpackLoEpi16(u, v), zero)
	if p.uyvy {
		m.store(r.y[2*x:], lanes.UnpackLoEpi8(cb, yb))
		return
	}
	m.store(r.y[2*x:], lanes.UnpackLoEpi8(yb, cb))
}

// blendPack spreads luma and chroma bytes with shuffles and merges them
// with a byte blend. It produces the same bytes as interleavePack.
type blendPack struct {
	spreadY, spreadC, pick lanes.Vec
}

func newBlendPack(f pixfmt.Format) *blendPack {
	yPos := 0
	if f == pixfmt.UYVY {
		yPos = 1
	}
	b := &blendPack{spreadY: lanes.Mask(), spreadC: lanes.Mask(), pick: lanes.Mask()}
	for i := 0; i < 8; i++ {
		b.spreadY[2*i+yPos] = byte(i)
		b.spreadC[2*i+1-yPos] = byte(i)
		b.pick[2*i+yPos] = 0
	}
	return b
}

func (p *blendPack) pack(r yuvRow, x int, y, u, v lanes.Vec, _ bool, m *mem) {
	yb := lanes.ShuffleEpi8(lanes.PackusEpi16(y, zero), p.spreadY)
	cb := lanes.ShuffleEpi8(lanes.PackusEpi16(lanes.UnpackLoEpi16(u, v), zero), p.spreadC)
	m.store(r.y[2*x:], lanes.BlendvEpi8(yb, cb, p.pick))
}

// planarPack narrows each plane and stores the low bytes.
type planarPack struct{}

func (planarPack) pack(r yuvRow, x int, y, u, v lanes.Vec, chroma bool, _ *mem) {
	lanes.StoreLo64(r.y[x:], lanes.PackusEpi16(y, zero))
	if !chroma {
		return
	}
	k := x >> 1
	lanes.Store32(r.u[k:], lanes.PackusEpi16(u, zero))
	lanes.Store32(r.v[k:], lanes.PackusEpi16(v, zero))
}

// upsampleNearest spreads chroma lanes 0..3 over 8 pixels.
func upsampleNearest(c lanes.Vec) lanes.Vec {
	return lanes.UnpackLoEpi16(c, c)
}

// upsampleAverage interpolates odd pixels between neighbouring chroma
// samples. next is the first chroma sample of the following group.
func upsampleAverage(c lanes.Vec, next int) lanes.Vec {
	n := lanes.InsertEpi16(lanes.SrliSi128(c, 2), next, 3)
	odd := lanes.SrliEpi16(lanes.AddEpi16(c, n), 1)
	return lanes.UnpackLoEpi16(c, odd)
}
