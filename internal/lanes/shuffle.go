package lanes

import "math"

// PackusEpi16 narrows the signed 16-bit lanes of a then b to unsigned bytes
// with saturation.
func PackusEpi16(a, b Vec) Vec {
	var v Vec
	for i := 0; i < 8; i++ {
		v[i] = satU8(a.i16(i))
		v[i+8] = satU8(b.i16(i))
	}
	return v
}

// PacksEpi32 narrows the signed 32-bit lanes of a then b to signed 16-bit
// lanes with saturation.
func PacksEpi32(a, b Vec) Vec {
	var v Vec
	for i := 0; i < 4; i++ {
		v.put16(i, uint16(satI16(a.i32(i))))
		v.put16(i+4, uint16(satI16(b.i32(i))))
	}
	return v
}

func satU8(x int16) byte {
	switch {
	case x < 0:
		return 0
	case x > math.MaxUint8:
		return math.MaxUint8
	}
	return byte(x)
}

func satI16(x int32) int16 {
	switch {
	case x < math.MinInt16:
		return math.MinInt16
	case x > math.MaxInt16:
		return math.MaxInt16
	}
	return int16(x)
}

func UnpackLoEpi8(a, b Vec) Vec {
	var v Vec
	for i := 0; i < 8; i++ {
		v[2*i] = a[i]
		v[2*i+1] = b[i]
	}
	return v
}

func UnpackHiEpi8(a, b Vec) Vec {
	var v Vec
	for i := 0; i < 8; i++ {
		v[2*i] = a[i+8]
		v[2*i+1] = b[i+8]
	}
	return v
}

func UnpackLoEpi16(a, b Vec) Vec {
	var v Vec
	for i := 0; i < 4; i++ {
		v.put16(2*i, a.u16(i))
		v.put16(2*i+1, b.u16(i))
	}
	return v
}

func UnpackHiEpi16(a, b Vec) Vec {
	var v Vec
	for i := 0; i < 4; i++ {
		v.put16(2*i, a.u16(i+4))
		v.put16(2*i+1, b.u16(i+4))
	}
	return v
}

func UnpackLoEpi32(a, b Vec) Vec {
	var v Vec
	v.put32(0, a.u32(0))
	v.put32(1, b.u32(0))
	v.put32(2, a.u32(1))
	v.put32(3, b.u32(1))
	return v
}

func UnpackLoEpi64(a, b Vec) Vec {
	var v Vec
	copy(v[:8], a[:8])
	copy(v[8:], b[:8])
	return v
}

func UnpackHiEpi64(a, b Vec) Vec {
	var v Vec
	copy(v[:8], a[8:])
	copy(v[8:], b[8:])
	return v
}

// ShuffleEpi32 picks each 32-bit lane of the result from a using two bits
// of imm, lane 0 in the low bits.
func ShuffleEpi32(a Vec, imm uint8) Vec {
	var v Vec
	for i := 0; i < 4; i++ {
		v.put32(i, a.u32(int(imm>>(2*i))&3))
	}
	return v
}

// ShuffleEpi8 gathers bytes of a by index. A mask byte with the high bit set
// produces zero.
func ShuffleEpi8(a, mask Vec) Vec {
	var v Vec
	for i, m := range mask {
		if m&0x80 == 0 {
			v[i] = a[m&15]
		}
	}
	return v
}

// BlendvEpi8 takes each byte from b where the mask byte has its high bit set
// and from a otherwise.
func BlendvEpi8(a, b, mask Vec) Vec {
	for i, m := range mask {
		if m&0x80 != 0 {
			a[i] = b[i]
		}
	}
	return a
}

// Zero is the mask byte that makes ShuffleEpi8 clear a lane.
const Zero = 0x80

// Mask builds a ShuffleEpi8 or BlendvEpi8 control vector.
func Mask(b ...byte) Vec {
	var v Vec
	for i := range v {
		v[i] = Zero
	}
	copy(v[:], b)
	return v
}
