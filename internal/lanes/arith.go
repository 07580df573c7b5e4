package lanes

func AddEpi16(a, b Vec) Vec {
	var v Vec
	for i := 0; i < 8; i++ {
		v.put16(i, a.u16(i)+b.u16(i))
	}
	return v
}

func SubEpi16(a, b Vec) Vec {
	var v Vec
	for i := 0; i < 8; i++ {
		v.put16(i, a.u16(i)-b.u16(i))
	}
	return v
}

func AddEpi32(a, b Vec) Vec {
	var v Vec
	for i := 0; i < 4; i++ {
		v.put32(i, a.u32(i)+b.u32(i))
	}
	return v
}

// MulhiEpu16 keeps the high 16 bits of each unsigned 16x16 product.
func MulhiEpu16(a, b Vec) Vec {
	var v Vec
	for i := 0; i < 8; i++ {
		v.put16(i, uint16((uint32(a.u16(i))*uint32(b.u16(i)))>>16))
	}
	return v
}

// MulhiEpi16 keeps the high 16 bits of each signed 16x16 product.
func MulhiEpi16(a, b Vec) Vec {
	var v Vec
	for i := 0; i < 8; i++ {
		v.put16(i, uint16((int32(a.i16(i))*int32(b.i16(i)))>>16))
	}
	return v
}

// MaddEpi16 multiplies signed 16-bit lanes and adds adjacent pairs into
// 32-bit lanes.
func MaddEpi16(a, b Vec) Vec {
	var v Vec
	for i := 0; i < 4; i++ {
		lo := int32(a.i16(2*i)) * int32(b.i16(2*i))
		hi := int32(a.i16(2*i+1)) * int32(b.i16(2*i+1))
		v.put32(i, uint32(lo)+uint32(hi))
	}
	return v
}

// AvgEpu16 computes (a + b + 1) >> 1 on unsigned 16-bit lanes.
func AvgEpu16(a, b Vec) Vec {
	var v Vec
	for i := 0; i < 8; i++ {
		v.put16(i, uint16((uint32(a.u16(i))+uint32(b.u16(i))+1)>>1))
	}
	return v
}

// AvgEpu8 computes (a + b + 1) >> 1 on unsigned bytes.
func AvgEpu8(a, b Vec) Vec {
	var v Vec
	for i := range v {
		v[i] = byte((uint16(a[i]) + uint16(b[i]) + 1) >> 1)
	}
	return v
}

func SlliEpi16(a Vec, n uint) Vec {
	var v Vec
	if n > 15 {
		return v
	}
	for i := 0; i < 8; i++ {
		v.put16(i, a.u16(i)<<n)
	}
	return v
}

func SrliEpi16(a Vec, n uint) Vec {
	var v Vec
	if n > 15 {
		return v
	}
	for i := 0; i < 8; i++ {
		v.put16(i, a.u16(i)>>n)
	}
	return v
}

func SlliEpi32(a Vec, n uint) Vec {
	var v Vec
	if n > 31 {
		return v
	}
	for i := 0; i < 4; i++ {
		v.put32(i, a.u32(i)<<n)
	}
	return v
}

func SrliEpi32(a Vec, n uint) Vec {
	var v Vec
	if n > 31 {
		return v
	}
	for i := 0; i < 4; i++ {
		v.put32(i, a.u32(i)>>n)
	}
	return v
}

// SraiEpi16 shifts signed 16-bit lanes right, filling with the sign bit.
func SraiEpi16(a Vec, n uint) Vec {
	if n > 15 {
		n = 15
	}
	var v Vec
	for i := 0; i < 8; i++ {
		v.put16(i, uint16(a.i16(i)>>n))
	}
	return v
}

// SraiEpi32 shifts signed 32-bit lanes right, filling with the sign bit.
// Counts above 31 behave as 31.
func SraiEpi32(a Vec, n uint) Vec {
	if n > 31 {
		n = 31
	}
	var v Vec
	for i := 0; i < 4; i++ {
		v.put32(i, uint32(a.i32(i)>>n))
	}
	return v
}

func SrliEpi64(a Vec, n uint) Vec {
	var v Vec
	if n > 63 {
		return v
	}
	for i := 0; i < 2; i++ {
		v.put64(i, a.u64(i)>>n)
	}
	return v
}

// SrliSi128 shifts the whole register right by n bytes.
func SrliSi128(a Vec, n int) Vec {
	var v Vec
	if n > 15 {
		return v
	}
	copy(v[:], a[n:])
	return v
}

// SlliSi128 shifts the whole register left by n bytes.
func SlliSi128(a Vec, n int) Vec {
	var v Vec
	if n > 15 {
		return v
	}
	copy(v[n:], a[:16-n])
	return v
}

func And(a, b Vec) Vec {
	for i := range a {
		a[i] &= b[i]
	}
	return a
}

func Or(a, b Vec) Vec {
	for i := range a {
		a[i] |= b[i]
	}
	return a
}

// AndNot computes ^a & b.
func AndNot(a, b Vec) Vec {
	for i := range a {
		a[i] = ^a[i] & b[i]
	}
	return a
}
