package convert

import (
	"github.com/rcarmo/pixconv/internal/lanes"
	"github.com/rcarmo/pixconv/internal/pixfmt"
)

// mem selects aligned or unaligned full-width loads and stores. Stages use
// it only for 16-byte accesses at offsets that are multiples of 16 from the
// row start; partial and 24-bit accesses always go through the unaligned
// forms.
type mem struct {
	load  func([]byte) lanes.Vec
	store func([]byte, lanes.Vec)
}

var (
	alignedMem   = mem{load: lanes.LoadAligned, store: lanes.StoreAligned}
	unalignedMem = mem{load: lanes.Load, store: lanes.Store}
)

// kernel converts one whole frame.
type kernel func(src, dst []byte, m *mem)

// forwardKernel composes an RGB decomposition with a YUV packer.
func forwardKernel[G, C any](d decomposition[G, C], pk yuvPacker, p *plan) kernel {
	avg := p.average()
	if p.dstDesc.ChromaShiftY == 0 {
		return func(src, dst []byte, m *mem) {
			sl := pixfmt.NewLayout(p.Src, src, p.Width, p.Height)
			dl := pixfmt.NewLayout(p.Dst, dst, p.Width, p.Height)
			for y := 0; y < p.Height; y++ {
				s := sl.Row(0, y)
				out := yuvRowAt(&dl, p.dstDesc, y)
				var c C
				for x := 0; x < p.Width; x += groupPixels {
					g := d.unpack(s, x, m)
					if x == 0 {
						c = d.start(g)
					}
					var dn G
					dn, c = d.downsample(g, c, avg)
					u, v := d.chroma(dn)
					pk.pack(out, x, d.luma(g), u, v, true, m)
				}
			}
		}
	}

	return func(src, dst []byte, m *mem) {
		sl := pixfmt.NewLayout(p.Src, src, p.Width, p.Height)
		dl := pixfmt.NewLayout(p.Dst, dst, p.Width, p.Height)
		for y := 0; y < p.Height; y += 2 {
			s0, s1 := sl.Row(0, y), sl.Row(0, y+1)
			out0, out1 := yuvRowAt(&dl, p.dstDesc, y), yuvRowAt(&dl, p.dstDesc, y+1)
			var c0, c1 C
			for x := 0; x < p.Width; x += groupPixels {
				g0, g1 := d.unpack(s0, x, m), d.unpack(s1, x, m)
				if x == 0 {
					c0, c1 = d.start(g0), d.start(g1)
				}
				var dn0, dn1 G
				dn0, c0 = d.downsample(g0, c0, avg)
				dn1, c1 = d.downsample(g1, c1, avg)
				u, v := d.chroma(d.average(dn0, dn1))
				pk.pack(out0, x, d.luma(g0), u, v, true, m)
				pk.pack(out1, x, d.luma(g1), u, v, false, m)
			}
		}
	}
}

// inverseKernel composes a YUV unpacker, chroma upsampling, the inverse
// matrix and an RGB packer.
func inverseKernel(up yuvUnpacker, inv *inverse3, pk rgbPacker, p *plan) kernel {
	peek := yuvAccessFor(p.Src)
	avg := p.average()
	return func(src, dst []byte, m *mem) {
		sl := pixfmt.NewLayout(p.Src, src, p.Width, p.Height)
		dl := pixfmt.NewLayout(p.Dst, dst, p.Width, p.Height)
		for y := 0; y < p.Height; y++ {
			in := yuvRowAt(&sl, p.srcDesc, y)
			out := dl.Row(0, y)
			for x := 0; x < p.Width; x += groupPixels {
				yv, u, v := up.unpack(in, x, m)
				if avg {
					un, vn := lanes.ExtractEpi16(u, 3), lanes.ExtractEpi16(v, 3)
					if x+groupPixels < p.Width {
						nu, nv := peek.readC(in, (x+groupPixels)>>1)
						un, vn = int(nu), int(nv)
					}
					u, v = upsampleAverage(u, un), upsampleAverage(v, vn)
				} else {
					u, v = upsampleNearest(u), upsampleNearest(v)
				}
				r, g, b := inv.apply(yv, u, v)
				pk.pack(out, x, r, g, b, m)
			}
		}
	}
}

// repackKernel moves 8-bit YUV between layouts; 4:2:0 destinations average
// the chroma of each row pair.
func repackKernel(up yuvUnpacker, pk yuvPacker, p *plan) kernel {
	if p.dstDesc.ChromaShiftY == 0 {
		return func(src, dst []byte, m *mem) {
			sl := pixfmt.NewLayout(p.Src, src, p.Width, p.Height)
			dl := pixfmt.NewLayout(p.Dst, dst, p.Width, p.Height)
			for y := 0; y < p.Height; y++ {
				in, out := yuvRowAt(&sl, p.srcDesc, y), yuvRowAt(&dl, p.dstDesc, y)
				for x := 0; x < p.Width; x += groupPixels {
					yv, u, v := up.unpack(in, x, m)
					pk.pack(out, x, yv, u, v, true, m)
				}
			}
		}
	}

	return func(src, dst []byte, m *mem) {
		sl := pixfmt.NewLayout(p.Src, src, p.Width, p.Height)
		dl := pixfmt.NewLayout(p.Dst, dst, p.Width, p.Height)
		for y := 0; y < p.Height; y += 2 {
			in0, in1 := yuvRowAt(&sl, p.srcDesc, y), yuvRowAt(&sl, p.srcDesc, y+1)
			out0, out1 := yuvRowAt(&dl, p.dstDesc, y), yuvRowAt(&dl, p.dstDesc, y+1)
			for x := 0; x < p.Width; x += groupPixels {
				y0, u0, v0 := up.unpack(in0, x, m)
				y1, u1, v1 := up.unpack(in1, x, m)
				u, v := lanes.AvgEpu16(u0, u1), lanes.AvgEpu16(v0, v1)
				pk.pack(out0, x, y0, u, v, true, m)
				pk.pack(out1, x, y1, u, v, false, m)
			}
		}
	}
}

// shuffleKernel moves pixels between 8-bit RGB layouts.
func shuffleKernel(s *shuffle3, pk rgbPacker, p *plan) kernel {
	return func(src, dst []byte, m *mem) {
		sl := pixfmt.NewLayout(p.Src, src, p.Width, p.Height)
		dl := pixfmt.NewLayout(p.Dst, dst, p.Width, p.Height)
		for y := 0; y < p.Height; y++ {
			in, out := sl.Row(0, y), dl.Row(0, y)
			for x := 0; x < p.Width; x += groupPixels {
				g := s.unpack(in, x, m)
				pk.pack(out, x, g.r, g.g, g.b, m)
			}
		}
	}
}
