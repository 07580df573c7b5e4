// Package lanes models a 128-bit vector register and the packed integer
// operations the conversion kernels are written against.
//
// Each operation mirrors one SSE2, SSSE3 or SSE4.1 instruction, lane for lane,
// including saturation and the treatment of out-of-range shift counts. The
// kernels in internal/convert only combine these operations, so a routine that
// passes its equivalence tests here has a one-to-one instruction mapping.
package lanes

import (
	"encoding/binary"
	"unsafe"
)

// Width is the register size in bytes.
const Width = 16

// Vec is one 128-bit register in little-endian lane order.
type Vec [Width]byte

var le = binary.LittleEndian

// Aligned reports whether the first element of b sits on a 16-byte boundary.
func Aligned(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))&(Width-1) == 0
}

// Load reads 16 bytes from b. It panics if b is shorter.
func Load(b []byte) Vec {
	var v Vec
	copy(v[:], b[:16])
	return v
}

// LoadAligned reads 16 bytes from b, which must be 16-byte aligned.
func LoadAligned(b []byte) Vec {
	_ = b[15]
	return *(*Vec)(unsafe.Pointer(&b[0]))
}

// Store writes v to the first 16 bytes of b.
func Store(b []byte, v Vec) {
	copy(b[:16], v[:])
}

// StoreAligned writes v to b, which must be 16-byte aligned.
func StoreAligned(b []byte, v Vec) {
	_ = b[15]
	*(*Vec)(unsafe.Pointer(&b[0])) = v
}

// LoadLo64 reads 8 bytes into the low half and zeroes the high half.
func LoadLo64(b []byte) Vec {
	var v Vec
	copy(v[:8], b[:8])
	return v
}

// StoreLo64 writes the low half of v.
func StoreLo64(b []byte, v Vec) {
	copy(b[:8], v[:8])
}

// Load32 reads 4 bytes into lane 0 and zeroes the rest.
func Load32(b []byte) Vec {
	var v Vec
	copy(v[:4], b[:4])
	return v
}

// Store32 writes the low 4 bytes of v.
func Store32(b []byte, v Vec) {
	copy(b[:4], v[:4])
}

func (v *Vec) i16(i int) int16 { return int16(le.Uint16(v[2*i:])) }
func (v *Vec) u16(i int) uint16 { return le.Uint16(v[2*i:]) }
func (v *Vec) i32(i int) int32 { return int32(le.Uint32(v[4*i:])) }
func (v *Vec) u32(i int) uint32 { return le.Uint32(v[4*i:]) }
func (v *Vec) u64(i int) uint64 { return le.Uint64(v[8*i:]) }
func (v *Vec) put16(i int, x uint16) { le.PutUint16(v[2*i:], x) }
func (v *Vec) put32(i int, x uint32) { le.PutUint32(v[4*i:], x) }
func (v *Vec) put64(i int, x uint64) { le.PutUint64(v[8*i:], x) }

// Set1Epi16 broadcasts x to all eight 16-bit lanes.
func Set1Epi16(x int16) Vec {
	var v Vec
	for i := 0; i < 8; i++ {
		v.put16(i, uint16(x))
	}
	return v
}

// Set1Epi32 broadcasts x to all four 32-bit lanes.
func Set1Epi32(x int32) Vec {
	var v Vec
	for i := 0; i < 4; i++ {
		v.put32(i, uint32(x))
	}
	return v
}

// FromInt16 builds a vector from eight 16-bit lanes, lane 0 first.
func FromInt16(x [8]int16) Vec {
	var v Vec
	for i, e := range x {
		v.put16(i, uint16(e))
	}
	return v
}

// FromInt32 builds a vector from four 32-bit lanes, lane 0 first.
func FromInt32(x [4]int32) Vec {
	var v Vec
	for i, e := range x {
		v.put32(i, uint32(e))
	}
	return v
}

// Int16 returns the eight 16-bit lanes of v.
func (v Vec) Int16() [8]int16 {
	var out [8]int16
	for i := range out {
		out[i] = v.i16(i)
	}
	return out
}

// Int32 returns the four 32-bit lanes of v.
func (v Vec) Int32() [4]int32 {
	var out [4]int32
	for i := range out {
		out[i] = v.i32(i)
	}
	return out
}

// InsertEpi16 replaces 16-bit lane i of a with x.
func InsertEpi16(a Vec, x int, i int) Vec {
	a.put16(i&7, uint16(x))
	return a
}

// ExtractEpi16 returns 16-bit lane i of a, zero-extended.
func ExtractEpi16(a Vec, i int) int {
	return int(a.u16(i & 7))
}

// MoveLo64 keeps the low 64 bits of a and clears the high half.
func MoveLo64(a Vec) Vec {
	var v Vec
	copy(v[:8], a[:8])
	return v
}
