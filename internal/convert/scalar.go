package convert

import (
	"github.com/rcarmo/pixconv/internal/colormatrix"
	"github.com/rcarmo/pixconv/internal/pixfmt"
)

// The scalar routines are the reference every lane routine is tested
// against. They handle any width the formats allow and every depth, and
// they allocate nothing per frame.

func buildScalar(p *plan) kernel {
	var fn func(src, dst []byte)
	switch {
	case p.Src.IsRGB() && p.Dst.IsYUV():
		fn = scalarRGBToYUV(p)
	case p.Src.IsYUV() && p.Dst.IsRGB():
		fn = scalarYUVToRGB(p)
	case p.Src.IsYUV():
		fn = scalarYUVToYUV(p)
	default:
		fn = scalarRGBToRGB(p)
	}
	return func(src, dst []byte, _ *mem) { fn(src, dst) }
}

// avg3 is the 3-tap chroma filter (prev + 2*curr + next) / 4, evaluated in
// the same order as the lane kernels so both round identically.
func avg3(prev, curr, next int32) int32 {
	return ((prev+next)>>1 + curr) >> 1
}

// pavg rounds up like the packed-average instruction.
func pavg(a, b int32) int32 { return (a + b + 1) >> 1 }

// chromaSource returns the RGB triple that feeds chroma pair k of a row.
func chromaSource(in *rgbAccess, row []byte, k int, avg bool) (r, g, b int32) {
	r, g, b = in.read(row, 2*k)
	if !avg {
		return r, g, b
	}
	nr, ng, nb := in.read(row, 2*k+1)
	pr, pg, pb := r, g, b
	if k > 0 {
		pr, pg, pb = in.read(row, 2*k-1)
	}
	return avg3(pr, r, nr), avg3(pg, g, ng), avg3(pb, b, nb)
}

// chromaAt returns the chroma serving luma sample x.
func chromaAt(in *yuvAccess, row yuvRow, x, pairs int, avg bool) (u, v int32) {
	k := x >> 1
	u, v = in.readC(row, k)
	if x&1 == 0 || !avg || k+1 >= pairs {
		return u, v
	}
	nu, nv := in.readC(row, k+1)
	return (u + nu) >> 1, (v + nv) >> 1
}

func scalarRGBToYUV(p *plan) func(src, dst []byte) {
	in := rgbAccessFor(p.Src)
	out := yuvAccessFor(p.Dst)
	m := colormatrix.Lookup(colormatrix.Forward, p.Standard, in.depth, out.depth)
	avg := p.average()
	rows := 1 << p.dstDesc.ChromaShiftY
	pairs := p.Width / 2

	luma := func(s []byte, d yuvRow) {
		for x := 0; x < p.Width; x++ {
			out.writeY(d, x, m.Luma(in.read(s, x)))
		}
	}

	return func(src, dst []byte) {
		sl := pixfmt.NewLayout(p.Src, src, p.Width, p.Height)
		dl := pixfmt.NewLayout(p.Dst, dst, p.Width, p.Height)
		for y := 0; y < p.Height; y += rows {
			s0 := sl.Row(0, y)
			d0 := yuvRowAt(&dl, p.dstDesc, y)
			luma(s0, d0)
			if rows == 1 {
				for k := 0; k < pairs; k++ {
					u, v := m.Chroma(chromaSource(&in, s0, k, avg))
					out.writeC(d0, k, u, v)
				}
				continue
			}

			s1 := sl.Row(0, y+1)
			d1 := yuvRowAt(&dl, p.dstDesc, y+1)
			luma(s1, d1)
			for k := 0; k < pairs; k++ {
				r0, g0, b0 := chromaSource(&in, s0, k, avg)
				r1, g1, b1 := chromaSource(&in, s1, k, avg)
				u, v := m.Chroma(pavg(r0, r1), pavg(g0, g1), pavg(b0, b1))
				out.writeC(d0, k, u, v)
			}
		}
	}
}

func scalarYUVToRGB(p *plan) func(src, dst []byte) {
	in := yuvAccessFor(p.Src)
	out := rgbAccessFor(p.Dst)
	m := colormatrix.Lookup(colormatrix.Inverse, p.Standard, in.depth, out.depth)
	avg := p.average()
	pairs := p.Width / 2

	return func(src, dst []byte) {
		sl := pixfmt.NewLayout(p.Src, src, p.Width, p.Height)
		dl := pixfmt.NewLayout(p.Dst, dst, p.Width, p.Height)
		for y := 0; y < p.Height; y++ {
			s := yuvRowAt(&sl, p.srcDesc, y)
			d := dl.Row(0, y)
			for x := 0; x < p.Width; x++ {
				u, v := chromaAt(&in, s, x, pairs, avg)
				r, g, b := m.Apply(in.readY(s, x), u, v)
				out.write(d, x, r, g, b)
			}
		}
	}
}

func scalarYUVToYUV(p *plan) func(src, dst []byte) {
	in := yuvAccessFor(p.Src)
	out := yuvAccessFor(p.Dst)
	rows := 1 << p.dstDesc.ChromaShiftY
	pairs := p.Width / 2

	luma := func(s, d yuvRow) {
		for x := 0; x < p.Width; x++ {
			out.writeY(d, x, rescale(in.readY(s, x), in.depth, out.depth))
		}
	}

	return func(src, dst []byte) {
		sl := pixfmt.NewLayout(p.Src, src, p.Width, p.Height)
		dl := pixfmt.NewLayout(p.Dst, dst, p.Width, p.Height)
		for y := 0; y < p.Height; y += rows {
			s0 := yuvRowAt(&sl, p.srcDesc, y)
			d0 := yuvRowAt(&dl, p.dstDesc, y)
			luma(s0, d0)
			if rows == 1 {
				for k := 0; k < pairs; k++ {
					u, v := in.readC(s0, k)
					out.writeC(d0, k, rescale(u, in.depth, out.depth), rescale(v, in.depth, out.depth))
				}
				continue
			}

			s1 := yuvRowAt(&sl, p.srcDesc, y+1)
			d1 := yuvRowAt(&dl, p.dstDesc, y+1)
			luma(s1, d1)
			for k := 0; k < pairs; k++ {
				u0, v0 := in.readC(s0, k)
				u1, v1 := in.readC(s1, k)
				out.writeC(d0, k,
					rescale(pavg(u0, u1), in.depth, out.depth),
					rescale(pavg(v0, v1), in.depth, out.depth))
			}
		}
	}
}

func scalarRGBToRGB(p *plan) func(src, dst []byte) {
	in := rgbAccessFor(p.Src)
	out := rgbAccessFor(p.Dst)

	return func(src, dst []byte) {
		sl := pixfmt.NewLayout(p.Src, src, p.Width, p.Height)
		dl := pixfmt.NewLayout(p.Dst, dst, p.Width, p.Height)
		for y := 0; y < p.Height; y++ {
			s, d := sl.Row(0, y), dl.Row(0, y)
			for x := 0; x < p.Width; x++ {
				r, g, b := in.read(s, x)
				out.write(d, x,
					rescale(r, in.depth, out.depth),
					rescale(g, in.depth, out.depth),
					rescale(b, in.depth, out.depth))
			}
		}
	}
}
