package colormatrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStandard(t *testing.T) {
	tests := []struct {
		input   string
		want    Standard
		wantErr bool
	}{
		{"full", FullRange, false},
		{"", FullRange, false},
		{"BT601", BT601, false},
		{"bt.601", BT601, false},
		{"bt709", BT709, false},
		{"709", BT709, false},
		{"bt2020", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStandard(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownStandard)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTablesFitInt16(t *testing.T) {
	for _, m := range All() {
		require.NotNil(t, m)
		t.Run(m.String(), func(t *testing.T) {
			assert.GreaterOrEqual(t, m.Shift, uint(minShift))
			assert.LessOrEqual(t, m.Shift, uint(maxShift))
			for i := range m.Coef {
				for j := range m.Coef[i] {
					assert.LessOrEqual(t, abs32(m.Coef[i][j]), int32(math.MaxInt16))
				}
			}
		})
	}
}

func TestShiftIsMaximal(t *testing.T) {
	tests := []struct {
		dir     Direction
		std     Standard
		in, out int
		want    uint
	}{
		{Forward, BT709, 8, 8, 15},
		{Forward, FullRange, 8, 8, 15},
		{Forward, BT601, 8, 10, 13},
		{Forward, BT601, 10, 8, 16},
		{Forward, BT709, 10, 10, 15},
		{Inverse, FullRange, 8, 8, 14},
		{Inverse, BT601, 8, 8, 13},
		{Inverse, BT709, 8, 8, 13},
		{Inverse, BT709, 10, 8, 15},
		{Inverse, BT601, 8, 10, 11},
	}
	for _, tt := range tests {
		m := Lookup(tt.dir, tt.std, tt.in, tt.out)
		require.NotNil(t, m)
		assert.Equal(t, tt.want, m.Shift, m.String())
	}
}

func TestForwardChromaRowsSumToZero(t *testing.T) {
	for std := Standard(0); std < standardCount; std++ {
		for _, in := range depths {
			for _, out := range depths {
				m := Lookup(Forward, std, in, out)
				for row := 1; row < 3; row++ {
					c := m.Coef[row]
					assert.Zero(t, c[0]+c[1]+c[2], "%s row %d", m, row)
				}
			}
		}
	}
}

func TestGrayMapsToNeutralChroma(t *testing.T) {
	m := Lookup(Forward, BT709, 8, 8)
	y, u, v := m.Apply(128, 128, 128)
	assert.Equal(t, int32(126), y)
	assert.Equal(t, int32(128), u)
	assert.Equal(t, int32(128), v)

	for _, g := range []int32{0, 17, 200, 255} {
		for std := Standard(0); std < standardCount; std++ {
			m := Lookup(Forward, std, 8, 8)
			u, v := m.Chroma(g, g, g)
			assert.Equal(t, int32(128), u)
			assert.Equal(t, int32(128), v)
		}
	}
}

func TestForwardMatchesFloat(t *testing.T) {
	m := Lookup(Forward, BT601, 8, 8)
	colors := [][3]int32{{0, 0, 0}, {255, 255, 255}, {255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {12, 200, 99}}
	for _, c := range colors {
		y, u, v := m.Apply(c[0], c[1], c[2])
		f := forwardFloat[BT601]
		fy := f[0][0]*float64(c[0]) + f[0][1]*float64(c[1]) + f[0][2]*float64(c[2]) + 16
		fu := f[1][0]*float64(c[0]) + f[1][1]*float64(c[1]) + f[1][2]*float64(c[2]) + 128
		fv := f[2][0]*float64(c[0]) + f[2][1]*float64(c[1]) + f[2][2]*float64(c[2]) + 128
		assert.InDelta(t, fy, float64(y), 1)
		assert.InDelta(t, fu, float64(u), 1)
		assert.InDelta(t, fv, float64(v), 1)
	}
}

func TestRoundTrip(t *testing.T) {
	for std := Standard(0); std < standardCount; std++ {
		fwd := Lookup(Forward, std, 8, 8)
		inv := Lookup(Inverse, std, 8, 8)
		for _, c := range [][3]int32{{128, 128, 128}, {200, 100, 50}, {30, 60, 90}, {180, 180, 20}} {
			y, u, v := fwd.Apply(c[0], c[1], c[2])
			r, g, b := inv.Apply(y, u, v)
			assert.InDelta(t, c[0], r, 4, "%s r", std)
			assert.InDelta(t, c[1], g, 4, "%s g", std)
			assert.InDelta(t, c[2], b, 4, "%s b", std)
		}
	}
}

func TestDepthScaling(t *testing.T) {
	m8 := Lookup(Forward, BT709, 8, 8)
	m10 := Lookup(Forward, BT709, 8, 10)
	y8 := m8.Luma(90, 160, 30)
	y10 := m10.Luma(90, 160, 30)
	assert.InDelta(t, y8*4, y10, 4)

	inv := Lookup(Inverse, BT709, 10, 8)
	r, g, b := inv.Apply(512, 512, 512)
	r8, g8, b8 := Lookup(Inverse, BT709, 8, 8).Apply(128, 128, 128)
	assert.InDelta(t, r8, r, 1)
	assert.InDelta(t, g8, g, 1)
	assert.InDelta(t, b8, b, 1)
}

func TestUnknownLookup(t *testing.T) {
	assert.Nil(t, Lookup(Forward, BT709, 12, 8))
	assert.Equal(t, "Standard(7)", Standard(7).String())
	assert.False(t, Standard(7).Valid())
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func BenchmarkForward(b *testing.B) {
	m := Lookup(Forward, BT709, 8, 8)
	b.ReportAllocs()
	var sink int32
	for i := 0; i < b.N; i++ {
		y, u, v := m.Apply(int32(i&255), 128, 64)
		sink += y + u + v
	}
	_ = sink
}
