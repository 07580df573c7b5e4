package convert

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rcarmo/pixconv/internal/colormatrix"
	"github.com/rcarmo/pixconv/internal/cpu"
	"github.com/rcarmo/pixconv/internal/lanes"
	"github.com/rcarmo/pixconv/internal/pixfmt"
)

// Candidate families.
const (
	FamilyBlend      = "blend"
	FamilyShuffle    = "shuffle"
	FamilyInterleave = "interleave"
	FamilyScalar     = "scalar"
)

// defaultPriority ranks families by measured throughput. The lane kernels
// emulate 128-bit registers a byte at a time and run several times slower
// than the scalar loops, so scalar leads; among the lane families the
// instruction tiers keep their order. Selector.Tune promotes a lane family.
var defaultPriority = map[string]int{
	FamilyScalar:     50,
	FamilyBlend:      40,
	FamilyShuffle:    30,
	FamilyInterleave: 20,
}

// Candidate is one way to convert a format pair.
type Candidate struct {
	Name     string
	Family   string
	Requires cpu.Mask
	Priority int
	// PixelMultiple and HeightMultiple restrict the frame sizes the
	// candidate can process.
	PixelMultiple  int
	HeightMultiple int

	build func(p *plan) kernel
}

// Vectorized reports whether the candidate runs lane kernels.
func (c *Candidate) Vectorized() bool { return c.Requires != cpu.None }

// Pair is an ordered (source, destination) format pair.
type Pair struct {
	Src, Dst pixfmt.Format
}

func (p Pair) String() string { return p.Src.String() + "->" + p.Dst.String() }

// Catalog holds the candidate lists of every supported pair.
type Catalog struct {
	mu    sync.RWMutex
	lists map[Pair][]Candidate
}

// NewCatalog returns the built-in catalog: a scalar routine for every pair
// of distinct formats plus lane routines for the 8-bit formats.
func NewCatalog() *Catalog {
	c := &Catalog{lists: make(map[Pair][]Candidate)}
	for _, src := range pixfmt.All() {
		for _, dst := range pixfmt.All() {
			if src == dst {
				continue
			}
			c.add(src, dst, Candidate{
				Family:         FamilyScalar,
				Requires:       cpu.None,
				PixelMultiple:  1,
				HeightMultiple: 1,
				build:          buildScalar,
			})
		}
	}
	registerLaneCandidates(c)
	c.reorder()
	return c
}

func (c *Catalog) add(src, dst pixfmt.Format, cand Candidate) {
	pair := Pair{src, dst}
	cand.Name = fmt.Sprintf("%s/%s", pair, cand.Family)
	cand.Priority = defaultPriority[cand.Family]
	c.lists[pair] = append(c.lists[pair], cand)
}

func (c *Catalog) reorder() {
	for _, list := range c.lists {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Priority > list[j].Priority })
	}
}

// Candidates returns a copy of the list for a pair, best first. It is
// empty for unsupported pairs.
func (c *Catalog) Candidates(src, dst pixfmt.Format) []Candidate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := c.lists[Pair{src, dst}]
	out := make([]Candidate, len(list))
	copy(out, list)
	return out
}

// SetPriority changes the priority of every candidate whose name or family
// equals match and reorders the affected lists. It returns the number of
// candidates changed.
func (c *Catalog) SetPriority(match string, priority int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, list := range c.lists {
		for i := range list {
			if list[i].Name == match || list[i].Family == match {
				list[i].Priority = priority
				n++
			}
		}
	}
	if n > 0 {
		c.reorder()
	}
	return n
}

// Pairs lists every supported pair in format order.
func (c *Catalog) Pairs() []Pair {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Pair, 0, len(c.lists))
	for p := range c.lists {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Src != out[j].Src {
			return out[i].Src < out[j].Src
		}
		return out[i].Dst < out[j].Dst
	})
	return out
}

var (
	rgb8 = []pixfmt.Format{pixfmt.ARGB, pixfmt.BGRA, pixfmt.RGB24, pixfmt.BGR24}
	yuv8 = []pixfmt.Format{pixfmt.YUYV, pixfmt.UYVY, pixfmt.YUV422P, pixfmt.YUV420P}
)

func is32(f pixfmt.Format) bool { return pixfmt.Describe(f).BytesPerPixelNum == 4 }

func isPackedYUV(f pixfmt.Format) bool { return f == pixfmt.YUYV || f == pixfmt.UYVY }

func lane(family string, requires cpu.Mask, build func(p *plan) kernel) Candidate {
	return Candidate{
		Family:         family,
		Requires:       requires,
		PixelMultiple:  groupPixels,
		HeightMultiple: 1,
		build:          build,
	}
}

func registerLaneCandidates(c *Catalog) {
	for _, src := range rgb8 {
		for _, dst := range yuv8 {
			if isPackedYUV(dst) {
				c.add(src, dst, lane(FamilyBlend, cpu.SSSE3|cpu.SSE41, func(p *plan) kernel {
					return forwardKernel[rgbGroup, carry3](newShuffle3(p.Src, forwardMatrix(p)), newBlendPack(p.Dst), p)
				}))
			}
			c.add(src, dst, lane(FamilyShuffle, cpu.SSSE3, func(p *plan) kernel {
				return forwardKernel[rgbGroup, carry3](newShuffle3(p.Src, forwardMatrix(p)), sse2YUVPacker(p.Dst), p)
			}))
			if is32(src) {
				c.add(src, dst, lane(FamilyInterleave, cpu.SSE2, func(p *plan) kernel {
					return forwardKernel[pairGroup, lanes.Vec](newInterleave2(p.Src, forwardMatrix(p)), sse2YUVPacker(p.Dst), p)
				}))
			}
		}
	}

	for _, src := range yuv8 {
		for _, dst := range rgb8 {
			c.add(src, dst, lane(FamilyShuffle, cpu.SSSE3, func(p *plan) kernel {
				return inverseKernel(ssse3YUVUnpacker(p.Src), newInverse3(inverseMatrix(p)), newRGBPacker(p.Dst), p)
			}))
			if is32(dst) {
				c.add(src, dst, lane(FamilyInterleave, cpu.SSE2, func(p *plan) kernel {
					return inverseKernel(sse2YUVUnpacker(p.Src), newInverse3(inverseMatrix(p)), newQuadPack(p.Dst), p)
				}))
			}
		}
		for _, dst := range yuv8 {
			if src == dst {
				continue
			}
			c.add(src, dst, lane(FamilyShuffle, cpu.SSSE3, func(p *plan) kernel {
				return repackKernel(ssse3YUVUnpacker(p.Src), sse2YUVPacker(p.Dst), p)
			}))
			c.add(src, dst, lane(FamilyInterleave, cpu.SSE2, func(p *plan) kernel {
				return repackKernel(sse2YUVUnpacker(p.Src), sse2YUVPacker(p.Dst), p)
			}))
		}
	}

	for _, src := range rgb8 {
		for _, dst := range rgb8 {
			if src == dst {
				continue
			}
			c.add(src, dst, lane(FamilyShuffle, cpu.SSSE3, func(p *plan) kernel {
				return shuffleKernel(newShuffle3(p.Src, nil), newRGBPacker(p.Dst), p)
			}))
		}
	}
}

func forwardMatrix(p *plan) *colormatrix.Matrix {
	return colormatrix.Lookup(colormatrix.Forward, p.Standard, p.srcDesc.BitDepth, p.dstDesc.BitDepth)
}

func inverseMatrix(p *plan) *colormatrix.Matrix {
	return colormatrix.Lookup(colormatrix.Inverse, p.Standard, p.srcDesc.BitDepth, p.dstDesc.BitDepth)
}

func sse2YUVUnpacker(f pixfmt.Format) yuvUnpacker {
	if pixfmt.Describe(f).Planar {
		return planarUnpack{}
	}
	return maskUnpack{uyvy: f == pixfmt.UYVY}
}

func ssse3YUVUnpacker(f pixfmt.Format) yuvUnpacker {
	if pixfmt.Describe(f).Planar {
		return planarUnpack{}
	}
	return newShuffleUnpack(f)
}

func sse2YUVPacker(f pixfmt.Format) yuvPacker {
	if pixfmt.Describe(f).Planar {
		return planarPack{}
	}
	return interleavePack{uyvy: f == pixfmt.UYVY}
}
