package pixconv

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/pixconv/internal/convert"
)

func grayARGB(w, h int) []byte {
	buf := make([]byte, ImageSize(ARGB, w, h))
	for i := range buf {
		buf[i] = 128
	}
	return buf
}

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		err  error
	}{
		{"zero size", Config{Source: ARGB, Dest: YUYV}, ErrInvalidDimensions},
		{"odd width", Config{Source: ARGB, Dest: YUYV, Width: 15, Height: 2}, ErrOddDimensions},
		{"odd 420 height", Config{Source: RGB24, Dest: YUV420P, Width: 16, Height: 5}, ErrOddDimensions},
		{"same format", Config{Source: UYVY, Dest: UYVY, Width: 16, Height: 2}, ErrUnsupportedPair},
		{"bad standard", Config{Source: ARGB, Dest: YUYV, Width: 16, Height: 2, Standard: 7}, ErrUnknownStandard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

// laneSelector ranks the lane families above scalar.
func laneSelector(caps CPUMask) *convert.Selector {
	s := convert.NewSelector(nil, convert.WithCapabilities(caps))
	s.Tune(convert.FamilyScalar, -1)
	return s
}

func TestGrayScenarioOnEveryTier(t *testing.T) {
	tiers := []CPUMask{0, CPUSSE2, CPUSSE2 | CPUSSSE3, CPUSSE2 | CPUSSSE3 | CPUSSE41}
	src := grayARGB(16, 2)

	var first []byte
	for _, tier := range tiers {
		c, err := New(Config{Source: ARGB, Dest: YUYV, Width: 16, Height: 2, Standard: BT709}, WithSelector(laneSelector(tier)))
		require.NoError(t, err)
		assert.Equal(t, tier != 0, c.UsesSIMD(), c.Routine().Name)

		dst := make([]byte, c.DestSize())
		require.NoError(t, c.ConvertChecked(src, dst))
		// Studio-range BT.709 maps gray 128 to Y = 125.95. The 137 sometimes
		// quoted for this frame matches no standard matrix; DESIGN.md records
		// the choice under "Gray scenario value (137 vs 126)".
		for i := 0; i < len(dst); i += 4 {
			assert.InDelta(t, 126, dst[i], 1, "Y0")
			assert.EqualValues(t, 128, dst[i+1], "U")
			assert.InDelta(t, 126, dst[i+2], 1, "Y1")
			assert.EqualValues(t, 128, dst[i+3], "V")
		}
		if first == nil {
			first = dst
		}
		assert.Equal(t, first, dst, "tier %s", tier)
	}
}

func TestConvertChecked(t *testing.T) {
	c, err := New(Config{Source: BGRA, Dest: YUV420P, Width: 32, Height: 4})
	require.NoError(t, err)
	assert.Equal(t, 32*4*4, c.SourceSize())
	assert.Equal(t, 32*4*3/2, c.DestSize())

	err = c.ConvertChecked(make([]byte, c.SourceSize()-1), make([]byte, c.DestSize()))
	assert.ErrorIs(t, err, ErrBufferTooSmall)
	assert.Contains(t, err.Error(), "source BGRA")

	err = c.ConvertChecked(make([]byte, c.SourceSize()), make([]byte, c.DestSize()-1))
	assert.ErrorIs(t, err, ErrBufferTooSmall)
	assert.Contains(t, err.Error(), "destination YUV420P")

	assert.NoError(t, c.ConvertChecked(make([]byte, c.SourceSize()+8), make([]byte, c.DestSize())))
}

func TestRoutineInfo(t *testing.T) {
	c, err := New(Config{Source: ARGB, Dest: UYVY, Width: 64, Height: 2}, WithCapabilities(CPUSSE2))
	require.NoError(t, err)
	assert.Equal(t, RoutineInfo{
		Name:           "ARGB->UYVY/scalar",
		Family:         convert.FamilyScalar,
		Requires:       "none-required",
		PixelMultiple:  1,
		HeightMultiple: 1,
	}, c.Routine())

	c, err = New(Config{Source: ARGB, Dest: UYVY, Width: 64, Height: 2}, WithSelector(laneSelector(CPUSSE2)))
	require.NoError(t, err)
	info := c.Routine()
	assert.Equal(t, RoutineInfo{
		Name:           "ARGB->UYVY/interleave",
		Family:         convert.FamilyInterleave,
		Requires:       "sse2",
		PixelMultiple:  8,
		HeightMultiple: 1,
		SIMD:           true,
	}, info)

	c, err = New(Config{Source: ARGB, Dest: UYVY, Width: 64, Height: 2, Flags: NoSIMD})
	require.NoError(t, err)
	assert.False(t, c.UsesSIMD())
	assert.Equal(t, "none-required", c.Routine().Requires)
}

func TestWithSelectorSharesMemo(t *testing.T) {
	s := convert.NewSelector(nil)
	cfg := Config{Source: YUYV, Dest: RGB24, Width: 16, Height: 2, Resampling: Nearest}
	a, err := New(cfg, WithSelector(s))
	require.NoError(t, err)
	b, err := New(cfg, WithSelector(s))
	require.NoError(t, err)
	assert.Same(t, a.routine, b.routine)
	assert.Equal(t, cfg, b.Config())
}

func TestRoundTripWithinTolerance(t *testing.T) {
	const w, h = 48, 4
	for _, std := range []Standard{FullRange, BT601, BT709} {
		for _, via := range []Format{YUYV, UYVY, YUV422P, YUV420P, V210} {
			fwd, err := New(Config{Source: RGB24, Dest: via, Width: w, Height: h, Standard: std})
			require.NoError(t, err)
			back, err := New(Config{Source: via, Dest: RGB24, Width: w, Height: h, Standard: std})
			require.NoError(t, err)

			src := make([]byte, fwd.SourceSize())
			for i := 0; i < len(src); i += 3 {
				v := byte(16 + (i/3)%220)
				src[i], src[i+1], src[i+2] = v, v, v
			}
			mid := make([]byte, fwd.DestSize())
			out := make([]byte, back.DestSize())
			fwd.Convert(src, mid)
			back.Convert(mid, out)

			tol := 2.0
			if std == FullRange {
				tol = 1
			}
			for i := range src {
				require.InDelta(t, src[i], out[i], tol, "%s via %s byte %d", std, via, i)
			}
		}
	}
}

func TestConvertDoesNotAllocate(t *testing.T) {
	const w, h = 64, 4
	cfgs := []Config{
		{Source: ARGB, Dest: YUYV, Width: w, Height: h, Standard: BT709},
		{Source: UYVY, Dest: BGRA, Width: w, Height: h},
		{Source: RGB24, Dest: YUV420P, Width: w, Height: h},
		{Source: YUYV, Dest: YUV420P, Width: w, Height: h},
		{Source: BGRA, Dest: RGB24, Width: w, Height: h},
		{Source: ARGB, Dest: V210, Width: 48, Height: h},
	}
	tiers := map[string]*convert.Selector{
		"default": convert.NewSelector(nil),
		"sse2":    laneSelector(CPUSSE2),
		"ssse3":   laneSelector(CPUSSE2 | CPUSSSE3),
		"sse41":   laneSelector(CPUSSE2 | CPUSSSE3 | CPUSSE41),
	}
	for name, s := range tiers {
		for _, cfg := range cfgs {
			c, err := New(cfg, WithSelector(s))
			require.NoError(t, err)
			src := make([]byte, c.SourceSize())
			dst := make([]byte, c.DestSize())
			allocs := testing.AllocsPerRun(10, func() { c.Convert(src, dst) })
			assert.Zero(t, allocs, "%s %s", name, c.Routine().Name)
		}
	}
}

func TestConcurrentConvert(t *testing.T) {
	c, err := New(Config{Source: ARGB, Dest: YUV422P, Width: 64, Height: 16, Standard: BT601})
	require.NoError(t, err)
	src := grayARGB(64, 16)
	want := make([]byte, c.DestSize())
	c.Convert(src, want)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dst := make([]byte, c.DestSize())
			c.Convert(src, dst)
			assert.Equal(t, want, dst)
		}()
	}
	wg.Wait()
}

func TestParseHelpers(t *testing.T) {
	f, err := ParseFormat("i420")
	require.NoError(t, err)
	assert.Equal(t, YUV420P, f)

	s, err := ParseStandard("BT.709")
	require.NoError(t, err)
	assert.Equal(t, BT709, s)

	r, err := ParseResampling("nnb")
	require.NoError(t, err)
	assert.Equal(t, Nearest, r)

	assert.Len(t, Formats(), 11)
}

func BenchmarkConverter(b *testing.B) {
	c, err := New(Config{Source: ARGB, Dest: YUYV, Width: 1280, Height: 720, Standard: BT709})
	require.NoError(b, err)
	src := grayARGB(1280, 720)
	dst := make([]byte, c.DestSize())
	b.ReportAllocs()
	b.SetBytes(int64(len(src)))
	for i := 0; i < b.N; i++ {
		c.Convert(src, dst)
	}
}
