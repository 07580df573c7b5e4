package pixfmt

// RowSize returns the number of bytes in one row of the first plane,
// including any padding the format requires.
func RowSize(f Format, width int) int {
	d := Describe(f)
	if d.Planar {
		return width
	}
	rpm := d.RowPixelMultiple
	return (width + rpm - 1) / rpm * rpm * d.BytesPerPixelNum / d.BytesPerPixelDen
}

// PaddingBytes returns the bytes at the end of each row that carry no pixel data.
func PaddingBytes(f Format, width int) int {
	d := Describe(f)
	if d.Planar {
		return 0
	}
	return RowSize(f, width) - width*d.BytesPerPixelNum/d.BytesPerPixelDen
}

// ImageSize returns the byte length of a whole frame.
func ImageSize(f Format, width, height int) int {
	d := Describe(f)
	if !d.Planar {
		return RowSize(f, width) * height
	}
	luma := width * height
	chroma := (width >> d.ChromaShiftX) * (height >> d.ChromaShiftY)
	return luma + 2*chroma
}

// Layout splits a frame buffer into planes.
type Layout struct {
	Planes  [3][]byte
	Strides [3]int
	Rows    [3]int
	Count   int
}

// NewLayout maps buf onto the planes of a width x height frame in format f.
// buf must hold at least ImageSize(f, width, height) bytes.
func NewLayout(f Format, buf []byte, width, height int) Layout {
	d := Describe(f)
	var l Layout
	l.Strides, l.Count = PlaneStrides(f, width)
	if !d.Planar {
		l.Planes[0] = buf[:l.Strides[0]*height]
		l.Rows[0] = height
		return l
	}

	ch := height >> d.ChromaShiftY
	lumaSize, chromaSize := width*height, l.Strides[1]*ch
	l.Planes[0] = buf[:lumaSize]
	l.Planes[1] = buf[lumaSize : lumaSize+chromaSize]
	l.Planes[2] = buf[lumaSize+chromaSize : lumaSize+2*chromaSize]
	l.Rows = [3]int{height, ch, ch}
	return l
}

// PlaneStrides returns the row stride of every plane and the plane count.
func PlaneStrides(f Format, width int) (strides [3]int, count int) {
	d := Describe(f)
	if !d.Planar {
		strides[0] = RowSize(f, width)
		return strides, 1
	}
	cw := width >> d.ChromaShiftX
	return [3]int{width, cw, cw}, 3
}

// Row returns row y of plane p.
func (l *Layout) Row(p, y int) []byte {
	s := l.Strides[p]
	off := y * s
	return l.Planes[p][off : off+s]
}

// StridesMultipleOf reports whether every plane stride of a width-pixel
// frame in f is a multiple of n bytes.
func StridesMultipleOf(f Format, width, n int) bool {
	s, count := PlaneStrides(f, width)
	for p := 0; p < count; p++ {
		if s[p]%n != 0 {
			return false
		}
	}
	return true
}
