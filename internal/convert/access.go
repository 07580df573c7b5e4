package convert

import (
	"encoding/binary"

	"github.com/rcarmo/pixconv/internal/pixfmt"
)

// rgbAccess reads and writes single pixels of an RGB row.
type rgbAccess struct {
	depth int
	read  func(row []byte, x int) (r, g, b int32)
	write func(row []byte, x int, r, g, b int32)
}

// yuvRow is one luma row of a YUV frame. Packed formats keep everything in
// y; planar formats also carry the chroma plane rows serving this luma row.
type yuvRow struct {
	y, u, v []byte
}

// yuvAccess reads and writes luma sample x and chroma pair k of a yuvRow.
type yuvAccess struct {
	depth  int
	readY  func(r yuvRow, x int) int32
	readC  func(r yuvRow, k int) (u, v int32)
	writeY func(r yuvRow, x int, y int32)
	writeC func(r yuvRow, k int, u, v int32)
}

func clip(v int32, depth int) int32 {
	hi := int32(1)<<depth - 1
	switch {
	case v < 0:
		return 0
	case v > hi:
		return hi
	}
	return v
}

func clip8(v int32) byte { return byte(clip(v, 8)) }

func rescale(v int32, from, to int) int32 {
	if to >= from {
		return v << (to - from)
	}
	return v >> (from - to)
}

func yuvRowAt(l *pixfmt.Layout, d pixfmt.Descriptor, y int) yuvRow {
	if !d.Planar {
		return yuvRow{y: l.Row(0, y)}
	}
	cy := y >> d.ChromaShiftY
	return yuvRow{y: l.Row(0, y), u: l.Row(1, cy), v: l.Row(2, cy)}
}

// channelOffsets gives the byte index of R, G and B inside one pixel of
// an 8-bit RGB format.
func channelOffsets(f pixfmt.Format) [3]int {
	switch f {
	case pixfmt.ARGB:
		return [3]int{1, 2, 3}
	case pixfmt.BGRA:
		return [3]int{2, 1, 0}
	case pixfmt.RGB24:
		return [3]int{0, 1, 2}
	case pixfmt.BGR24:
		return [3]int{2, 1, 0}
	}
	panic("convert: no byte channel layout for " + f.String())
}

func rgbAccessFor(f pixfmt.Format) rgbAccess {
	switch f {
	case pixfmt.R210:
		return rgbAccess{
			depth: 10,
			read: func(row []byte, x int) (r, g, b int32) {
				w := binary.BigEndian.Uint32(row[4*x:])
				return int32(w >> 20 & 0x3ff), int32(w >> 10 & 0x3ff), int32(w & 0x3ff)
			},
			write: func(row []byte, x int, r, g, b int32) {
				w := uint32(clip(r, 10))<<20 | uint32(clip(g, 10))<<10 | uint32(clip(b, 10))
				binary.BigEndian.PutUint32(row[4*x:], w)
			},
		}
	case pixfmt.R10K:
		return rgbAccess{
			depth: 10,
			read: func(row []byte, x int) (r, g, b int32) {
				w := binary.BigEndian.Uint32(row[4*x:])
				return int32(w >> 22 & 0x3ff), int32(w >> 12 & 0x3ff), int32(w >> 2 & 0x3ff)
			},
			write: func(row []byte, x int, r, g, b int32) {
				w := uint32(clip(r, 10))<<22 | uint32(clip(g, 10))<<12 | uint32(clip(b, 10))<<2
				binary.BigEndian.PutUint32(row[4*x:], w)
			},
		}
	}

	bpp := pixfmt.Describe(f).BytesPerPixelNum
	off := channelOffsets(f)
	alpha := -1
	if bpp == 4 {
		alpha = 6 - off[0] - off[1] - off[2]
	}
	return rgbAccess{
		depth: 8,
		read: func(row []byte, x int) (r, g, b int32) {
			p := row[bpp*x : bpp*x+bpp]
			return int32(p[off[0]]), int32(p[off[1]]), int32(p[off[2]])
		},
		write: func(row []byte, x int, r, g, b int32) {
			p := row[bpp*x : bpp*x+bpp]
			p[off[0]], p[off[1]], p[off[2]] = clip8(r), clip8(g), clip8(b)
			if alpha >= 0 {
				p[alpha] = 0
			}
		},
	}
}

func yuvAccessFor(f pixfmt.Format) yuvAccess {
	switch f {
	case pixfmt.YUYV:
		return packed422Access(0, 1, 3)
	case pixfmt.UYVY:
		return packed422Access(1, 0, 2)
	case pixfmt.YUV422P, pixfmt.YUV420P:
		return yuvAccess{
			depth: 8,
			readY: func(r yuvRow, x int) int32 { return int32(r.y[x]) },
			readC: func(r yuvRow, k int) (int32, int32) {
				return int32(r.u[k]), int32(r.v[k])
			},
			writeY: func(r yuvRow, x int, y int32) { r.y[x] = clip8(y) },
			writeC: func(r yuvRow, k int, u, v int32) {
				r.u[k], r.v[k] = clip8(u), clip8(v)
			},
		}
	case pixfmt.V210:
		return yuvAccess{
			depth: 10,
			readY: func(r yuvRow, x int) int32 {
				return v210Get(r.y, x/6, v210Luma[x%6])
			},
			readC: func(r yuvRow, k int) (int32, int32) {
				return v210Get(r.y, k/3, v210Cb[k%3]), v210Get(r.y, k/3, v210Cr[k%3])
			},
			writeY: func(r yuvRow, x int, y int32) {
				v210Put(r.y, x/6, v210Luma[x%6], clip(y, 10))
			},
			writeC: func(r yuvRow, k int, u, v int32) {
				v210Put(r.y, k/3, v210Cb[k%3], clip(u, 10))
				v210Put(r.y, k/3, v210Cr[k%3], clip(v, 10))
			},
		}
	}
	panic("convert: no YUV access for " + f.String())
}

// packed422Access covers the 8-bit packed orders; the arguments are the
// byte offsets of Y0, U and V inside a 4-byte pixel pair.
func packed422Access(yOff, uOff, vOff int) yuvAccess {
	return yuvAccess{
		depth: 8,
		readY: func(r yuvRow, x int) int32 { return int32(r.y[2*x+yOff]) },
		readC: func(r yuvRow, k int) (int32, int32) {
			return int32(r.y[4*k+uOff]), int32(r.y[4*k+vOff])
		},
		writeY: func(r yuvRow, x int, y int32) { r.y[2*x+yOff] = clip8(y) },
		writeC: func(r yuvRow, k int, u, v int32) {
			r.y[4*k+uOff], r.y[4*k+vOff] = clip8(u), clip8(v)
		},
	}
}

// V210 stores six pixels in four little-endian words. Each field is
// addressed by its word index and bit shift within the 16-byte group.
type v210Field struct {
	word  int
	shift uint
}

var (
	v210Luma = [6]v210Field{{0, 10}, {1, 0}, {1, 20}, {2, 10}, {3, 0}, {3, 20}}
	v210Cb   = [3]v210Field{{0, 0}, {1, 10}, {2, 20}}
	v210Cr   = [3]v210Field{{0, 20}, {2, 0}, {3, 10}}
)

func v210Get(row []byte, group int, f v210Field) int32 {
	w := binary.LittleEndian.Uint32(row[16*group+4*f.word:])
	return int32(w >> f.shift & 0x3ff)
}

func v210Put(row []byte, group int, f v210Field, val int32) {
	b := row[16*group+4*f.word:]
	w := binary.LittleEndian.Uint32(b)
	w = w&^(0x3ff<<f.shift) | uint32(val)<<f.shift
	binary.LittleEndian.PutUint32(b, w)
}
