package convert

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcarmo/pixconv/internal/colormatrix"
	"github.com/rcarmo/pixconv/internal/lanes"
	"github.com/rcarmo/pixconv/internal/pixfmt"
)

// alignedBuf returns a zeroed n-byte slice starting on a 16-byte boundary.
func alignedBuf(n int) []byte {
	b := make([]byte, n+16)
	off := 0
	for !lanes.Aligned(b[off:]) {
		off++
	}
	return b[off : off+n : off+n]
}

// misalignedBuf returns a zeroed n-byte slice one byte past a 16-byte
// boundary.
func misalignedBuf(n int) []byte {
	b := alignedBuf(n + 1)
	return b[1:]
}

type inputKind int

const (
	inputRandom inputKind = iota
	inputBlack
	inputWhite
	inputStripes
)

func (k inputKind) String() string {
	return [...]string{"random", "black", "white", "stripes"}[k]
}

func fillInput(buf []byte, kind inputKind, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range buf {
		switch kind {
		case inputRandom:
			buf[i] = byte(rng.Intn(256))
		case inputBlack:
			buf[i] = 0
		case inputWhite:
			buf[i] = 255
		case inputStripes:
			if (i/3)%2 == 0 {
				buf[i] = 255
			} else {
				buf[i] = byte(i)
			}
		}
	}
}

// tolerance is the largest per-byte difference allowed between a lane
// routine and the scalar reference.
func tolerance(c *Candidate, p Pair) int {
	if p.Src.IsRGB() && p.Dst.IsYUV() && c.Family != FamilyInterleave {
		return 2
	}
	return 0
}

func maxDiff(a, b []byte) (int, int) {
	worst, at := 0, -1
	for i := range a {
		d := int(a[i]) - int(b[i])
		if d < 0 {
			d = -d
		}
		if d > worst {
			worst, at = d, i
		}
	}
	return worst, at
}

func TestLaneMatchesScalar(t *testing.T) {
	cat := NewCatalog()
	sizes := [][2]int{{16, 2}, {24, 4}}

	for _, pair := range cat.Pairs() {
		list := cat.Candidates(pair.Src, pair.Dst)
		for i := range list {
			c := &list[i]
			if !c.Vectorized() {
				continue
			}
			t.Run(c.Name, func(t *testing.T) {
				tol := tolerance(c, pair)
				for std := colormatrix.FullRange; std <= colormatrix.BT709; std++ {
					for _, res := range []Resampling{Average, Nearest} {
						for _, size := range sizes {
							for kind := inputRandom; kind <= inputStripes; kind++ {
								req := Request{
									Src: pair.Src, Dst: pair.Dst,
									Width: size[0], Height: size[1],
									Standard: std, Resampling: res,
								}
								name := fmt.Sprintf("%s/%s", req, kind)
								p := newPlan(req)
								ref := newRoutine(&Candidate{build: buildScalar}, p)
								lane := newRoutine(c, p)

								srcSize := pixfmt.ImageSize(pair.Src, size[0], size[1])
								dstSize := pixfmt.ImageSize(pair.Dst, size[0], size[1])
								src := alignedBuf(srcSize)
								fillInput(src, kind, int64(size[0]*31+int(std)))

								want := make([]byte, dstSize)
								ref.unaligned(src, want)

								got := alignedBuf(dstSize)
								lane.aligned(src, got)
								d, at := maxDiff(want, got)
								require.LessOrEqual(t, d, tol, "%s aligned: byte %d", name, at)

								srcU := misalignedBuf(srcSize)
								copy(srcU, src)
								gotU := misalignedBuf(dstSize)
								lane.unaligned(srcU, gotU)
								require.Equal(t, got, gotU, "%s: aligned and unaligned differ", name)
							}
						}
					}
				}
			})
		}
	}
}

func TestInterleaveForwardIsExact(t *testing.T) {
	m := colormatrix.Lookup(colormatrix.Forward, colormatrix.BT601, 8, 8)
	for _, f := range []pixfmt.Format{pixfmt.ARGB, pixfmt.BGRA} {
		s := newInterleave2(f, m)
		acc := rgbAccessFor(f)
		row := make([]byte, 32)
		fillInput(row, inputRandom, 7)

		g := s.unpack(row, 0, &unalignedMem)
		y := s.luma(g).Int16()
		for x := 0; x < 8; x++ {
			require.Equal(t, int16(m.Luma(acc.read(row, x))), y[x], "%s pixel %d", f, x)
		}

		d, _ := s.downsample(g, s.start(g), false)
		u, v := s.chroma(d)
		for k := 0; k < 4; k++ {
			wu, wv := m.Chroma(acc.read(row, 2*k))
			require.Equal(t, int16(wu), u.Int16()[k])
			require.Equal(t, int16(wv), v.Int16()[k])
		}
	}
}

func TestShuffleForwardWithinOne(t *testing.T) {
	for std := colormatrix.FullRange; std <= colormatrix.BT709; std++ {
		m := colormatrix.Lookup(colormatrix.Forward, std, 8, 8)
		s := newShuffle3(pixfmt.RGB24, m)
		acc := rgbAccessFor(pixfmt.RGB24)
		row := make([]byte, 24)
		for seed := int64(0); seed < 64; seed++ {
			fillInput(row, inputRandom, seed)
			g := s.unpack(row, 0, &unalignedMem)
			y := s.luma(g).Int16()
			for x := 0; x < 8; x++ {
				want := int(m.Luma(acc.read(row, x)))
				require.InDelta(t, want, int(y[x]), 1, "%s seed %d pixel %d", std, seed, x)
			}
		}
	}
}

func TestInverseLanesAreExact(t *testing.T) {
	for std := colormatrix.FullRange; std <= colormatrix.BT709; std++ {
		m := colormatrix.Lookup(colormatrix.Inverse, std, 8, 8)
		k := newInverse3(m)
		rng := rand.New(rand.NewSource(int64(std)))
		for iter := 0; iter < 200; iter++ {
			var ys, us, vs [8]int16
			for i := range ys {
				ys[i], us[i], vs[i] = int16(rng.Intn(256)), int16(rng.Intn(256)), int16(rng.Intn(256))
			}
			r, g, b := k.apply(lanes.FromInt16(ys), lanes.FromInt16(us), lanes.FromInt16(vs))
			for i := range ys {
				wr, wg, wb := m.Apply(int32(ys[i]), int32(us[i]), int32(vs[i]))
				require.Equal(t, int16(wr), r.Int16()[i])
				require.Equal(t, int16(wg), g.Int16()[i])
				require.Equal(t, int16(wb), b.Int16()[i])
			}
		}
	}
}
