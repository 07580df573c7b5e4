package lanes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq() Vec {
	var v Vec
	for i := range v {
		v[i] = byte(i)
	}
	return v
}

func TestLoadStore(t *testing.T) {
	buf := make([]byte, 40)
	for i := range buf {
		buf[i] = byte(i + 1)
	}

	v := Load(buf[3:])
	assert.Equal(t, byte(4), v[0])
	assert.Equal(t, byte(19), v[15])

	out := make([]byte, 16)
	Store(out, v)
	assert.Equal(t, buf[3:19], out)

	lo := LoadLo64(buf)
	assert.Equal(t, byte(8), lo[7])
	assert.Zero(t, lo[8])

	w := Load32(buf[4:])
	assert.Equal(t, [4]int32{int32(5) | 6<<8 | 7<<16 | 8<<24, 0, 0, 0}, w.Int32())

	assert.Panics(t, func() { Load(buf[30:]) })
}

func TestAlignedLoadStore(t *testing.T) {
	buf := make([]byte, 64)
	off := 0
	for !Aligned(buf[off:]) {
		off++
	}
	require.Less(t, off, 16)
	aligned := buf[off : off+16]
	assert.False(t, Aligned(buf[off+1:]))

	StoreAligned(aligned, seq())
	assert.Equal(t, seq(), LoadAligned(aligned))
	assert.Equal(t, seq(), Load(aligned))
}

func TestArithmetic(t *testing.T) {
	a := FromInt16([8]int16{1, -2, 300, 32767, 0, 5, -32768, 100})
	b := FromInt16([8]int16{1, 2, -300, 1, 0, 5, -1, 28})

	assert.Equal(t, [8]int16{2, 0, 0, -32768, 0, 10, 32767, 128}, AddEpi16(a, b).Int16())
	assert.Equal(t, [8]int16{0, -4, 600, 32766, 0, 0, -32767, 72}, SubEpi16(a, b).Int16())

	x := Set1Epi16(1 << 14)
	y := FromInt16([8]int16{4, -4, 16384, 8, 0, 1, 2, 3})
	assert.Equal(t, [8]int16{1, -1, 4096, 2, 0, 0, 0, 0}, MulhiEpi16(x, y).Int16())

	u := Set1Epi16(-1) // 0xffff unsigned
	// -4 reads as 65532 unsigned.
	assert.Equal(t, [8]int16{3, -5, 16383, 7, 0, 0, 1, 2}, MulhiEpu16(u, y).Int16())
}

func TestMadd(t *testing.T) {
	a := FromInt16([8]int16{1, 2, 3, 4, -5, 6, 32767, 32767})
	b := FromInt16([8]int16{10, 100, -1, 1, 2, 2, 2, 2})
	assert.Equal(t, [4]int32{210, 1, 2, 131068}, MaddEpi16(a, b).Int32())
}

func TestAverage(t *testing.T) {
	a := FromInt16([8]int16{0, 1, 2, 255, 1023, -1, 7, 8})
	b := FromInt16([8]int16{0, 2, 2, 0, 1022, -1, 8, 8})
	assert.Equal(t, [8]int16{0, 2, 2, 128, 1023, -1, 8, 8}, AvgEpu16(a, b).Int16())

	p := Vec{0, 1, 255, 254}
	q := Vec{0, 2, 255, 0}
	r := AvgEpu8(p, q)
	assert.Equal(t, []byte{0, 2, 255, 127}, r[:4])
}

func TestShifts(t *testing.T) {
	a := FromInt16([8]int16{-2, 4, 256, 1, 0, 0, 0, 0x7fff})
	assert.Equal(t, [8]int16{0x7fff, 2, 128, 0, 0, 0, 0, 0x3fff}, SrliEpi16(a, 1).Int16())
	assert.Equal(t, [8]int16{-4, 8, 512, 2, 0, 0, 0, -2}, SlliEpi16(a, 1).Int16())
	assert.Equal(t, Vec{}, SrliEpi16(a, 16))
	assert.Equal(t, [8]int16{-1, 2, 128, 0, 0, 0, 0, 0x3fff}, SraiEpi16(a, 1).Int16())

	d := FromInt32([4]int32{-8, 8, 1 << 30, -1})
	assert.Equal(t, [4]int32{-2, 2, 1 << 28, -1}, SraiEpi32(d, 2).Int32())
	assert.Equal(t, [4]int32{-1, 0, 0, -1}, SraiEpi32(d, 40).Int32())
	assert.Equal(t, [4]int32{0x3ffffffe, 2, 1 << 28, 0x3fffffff}, SrliEpi32(d, 2).Int32())
	assert.Equal(t, [4]int32{-32, 32, 0, -4}, SlliEpi32(d, 2).Int32())

	q := FromInt32([4]int32{1, 2, 3, 4})
	assert.Equal(t, [4]int32{2, 0, 4, 0}, SrliEpi64(q, 32).Int32())

	s := seq()
	r := SrliSi128(s, 4)
	assert.Equal(t, byte(4), r[0])
	assert.Zero(t, r[12])
	l := SlliSi128(s, 2)
	assert.Zero(t, l[1])
	assert.Equal(t, byte(0), l[2])
	assert.Equal(t, byte(13), l[15])
	assert.Equal(t, Vec{}, SrliSi128(s, 16))
}

func TestPack(t *testing.T) {
	a := FromInt16([8]int16{-5, 0, 128, 255, 256, 1000, 7, -32768})
	r := PackusEpi16(a, Set1Epi16(300))
	assert.Equal(t, []byte{0, 0, 128, 255, 255, 255, 7, 0}, r[:8])
	assert.Equal(t, byte(255), r[15])

	d := FromInt32([4]int32{-40000, 40000, 12, -12})
	assert.Equal(t, [8]int16{-32768, 32767, 12, -12, 0, 0, 0, 0}, PacksEpi32(d, Vec{}).Int16())
}

func TestUnpack(t *testing.T) {
	a := seq()
	b := Or(seq(), Set1Epi16(0x4040))

	lo := UnpackLoEpi8(a, b)
	assert.Equal(t, []byte{0, 0x40, 1, 0x41, 2, 0x42}, lo[:6])
	hi := UnpackHiEpi8(a, Vec{})
	assert.Equal(t, []byte{8, 0, 9, 0}, hi[:4])

	x := FromInt16([8]int16{0, 1, 2, 3, 4, 5, 6, 7})
	y := FromInt16([8]int16{10, 11, 12, 13, 14, 15, 16, 17})
	assert.Equal(t, [8]int16{0, 10, 1, 11, 2, 12, 3, 13}, UnpackLoEpi16(x, y).Int16())
	assert.Equal(t, [8]int16{4, 14, 5, 15, 6, 16, 7, 17}, UnpackHiEpi16(x, y).Int16())
	assert.Equal(t, [8]int16{0, 1, 10, 11, 2, 3, 12, 13}, UnpackLoEpi32(x, y).Int16())
	assert.Equal(t, [8]int16{0, 1, 2, 3, 10, 11, 12, 13}, UnpackLoEpi64(x, y).Int16())
	assert.Equal(t, [8]int16{4, 5, 6, 7, 14, 15, 16, 17}, UnpackHiEpi64(x, y).Int16())
}

func TestShuffle(t *testing.T) {
	q := FromInt32([4]int32{10, 20, 30, 40})
	assert.Equal(t, [4]int32{10, 30, 10, 10}, ShuffleEpi32(q, 0x08).Int32())
	assert.Equal(t, [4]int32{40, 30, 20, 10}, ShuffleEpi32(q, 0x1b).Int32())

	s := seq()
	m := Mask(15, 0, Zero, 3)
	r := ShuffleEpi8(s, m)
	assert.Equal(t, []byte{15, 0, 0, 3}, r[:4])
	assert.Zero(t, r[4], "unspecified mask bytes clear the lane")

	bl := BlendvEpi8(s, Set1Epi16(-1), Mask(0, 0x80, 0, 0x80))
	assert.Equal(t, []byte{0, 0xff, 2, 0xff}, bl[:4])
	assert.Equal(t, byte(0xff), bl[4], "Mask pads with 0x80")
}

func TestLaneAccess(t *testing.T) {
	x := FromInt16([8]int16{1, 2, 3, 4, 5, 6, 7, 8})
	y := InsertEpi16(x, 99, 3)
	assert.Equal(t, 99, ExtractEpi16(y, 3))
	assert.Equal(t, 4, ExtractEpi16(x, 3))
	assert.Equal(t, 0xffff, ExtractEpi16(Set1Epi16(-1), 0))

	lo := MoveLo64(x)
	assert.Equal(t, [8]int16{1, 2, 3, 4, 0, 0, 0, 0}, lo.Int16())

	assert.Equal(t, [8]int16{0, 2, 0, 4, 0, 6, 0, 8},
		And(x, FromInt16([8]int16{0, -1, 0, -1, 0, -1, 0, -1})).Int16())
	assert.Equal(t, [8]int16{1, 0, 3, 0, 5, 0, 7, 0},
		AndNot(FromInt16([8]int16{0, -1, 0, -1, 0, -1, 0, -1}), x).Int16())
}

func BenchmarkMadd(b *testing.B) {
	x := seq()
	y := Set1Epi16(3)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		x = MaddEpi16(x, y)
	}
	_ = x
}

func BenchmarkShuffleEpi8(b *testing.B) {
	x := seq()
	m := Mask(3, 2, 1, 0, 7, 6, 5, 4, 11, 10, 9, 8, 15, 14, 13, 12)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		x = ShuffleEpi8(x, m)
	}
	_ = x
}
