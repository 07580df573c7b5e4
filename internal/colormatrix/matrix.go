// Package colormatrix holds the fixed-point RGB/YUV conversion tables.
//
// Every table is derived from a floating-point matrix by scaling it to the
// requested bit depths and multiplying by 1<<Shift. Shift is chosen per table
// as the largest value in [minShift, maxShift] that keeps every coefficient
// inside a signed 16-bit lane, so the same table feeds both the scalar
// reference and the 16-bit lane kernels.
package colormatrix

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Standard selects the colorimetry.
type Standard int

const (
	FullRange Standard = iota
	BT601
	BT709

	standardCount
)

// Direction selects the conversion direction.
type Direction int

const (
	// Forward converts RGB to YUV.
	Forward Direction = iota
	// Inverse converts YUV to RGB.
	Inverse
)

const (
	minShift = 8
	maxShift = 16
	laneMax  = math.MaxInt16
)

var ErrUnknownStandard = errors.New("colormatrix: unknown standard")

var standardNames = [standardCount]string{"full", "bt601", "bt709"}

func (s Standard) String() string {
	if s < 0 || s >= standardCount {
		return fmt.Sprintf("Standard(%d)", int(s))
	}
	return standardNames[s]
}

// ParseStandard maps "full", "bt601" or "bt709" (case-insensitive, dots
// allowed) to a Standard.
func ParseStandard(name string) (Standard, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), ".", "")
	switch n {
	case "full", "fullrange", "full-range", "":
		return FullRange, nil
	case "bt601", "601":
		return BT601, nil
	case "bt709", "709":
		return BT709, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStandard, name)
}

// Valid reports whether s is one of the defined standards.
func (s Standard) Valid() bool { return s >= 0 && s < standardCount }

// Matrix is a fixed-point conversion table.
//
// Forward: out[i] = (sum_j Coef[i][j]*in[j] + round) >> Shift + Offset[i]
// Inverse: out[i] = (sum_j Coef[i][j]*(in[j]+Offset[j]) + round) >> Shift
//
// where round is 1 << (Shift-1). Inverse offsets are zero or negative.
type Matrix struct {
	Direction Direction
	Standard  Standard
	InDepth   int
	OutDepth  int
	Shift     uint
	Coef      [3][3]int32
	Offset    [3]int32
}

func (m *Matrix) round() int32 { return 1 << (m.Shift - 1) }

// Luma computes the Y term of a forward matrix.
func (m *Matrix) Luma(r, g, b int32) int32 {
	c := &m.Coef[0]
	return (c[0]*r+c[1]*g+c[2]*b+m.round())>>m.Shift + m.Offset[0]
}

// Chroma computes the U and V terms of a forward matrix.
func (m *Matrix) Chroma(r, g, b int32) (u, v int32) {
	cu, cv := &m.Coef[1], &m.Coef[2]
	u = (cu[0]*r+cu[1]*g+cu[2]*b+m.round())>>m.Shift + m.Offset[1]
	v = (cv[0]*r+cv[1]*g+cv[2]*b+m.round())>>m.Shift + m.Offset[2]
	return u, v
}

// Apply converts one sample triple. Results are not clamped; callers clip
// to the destination depth when packing.
func (m *Matrix) Apply(a, b, c int32) (x, y, z int32) {
	if m.Direction == Forward {
		x = m.Luma(a, b, c)
		y, z = m.Chroma(a, b, c)
		return x, y, z
	}
	a += m.Offset[0]
	b += m.Offset[1]
	c += m.Offset[2]
	k := &m.Coef
	x = (k[0][0]*a + k[0][1]*b + k[0][2]*c + m.round()) >> m.Shift
	y = (k[1][0]*a + k[1][1]*b + k[1][2]*c + m.round()) >> m.Shift
	z = (k[2][0]*a + k[2][1]*b + k[2][2]*c + m.round()) >> m.Shift
	return x, y, z
}

func (m *Matrix) String() string {
	dir := "rgb->yuv"
	if m.Direction == Inverse {
		dir = "yuv->rgb"
	}
	return fmt.Sprintf("%s %s %d->%d bit (shift %d)", dir, m.Standard, m.InDepth, m.OutDepth, m.Shift)
}

type tableKey struct {
	dir     Direction
	std     Standard
	in, out int
}

var tables = buildTables()

// Lookup returns the table for a direction, standard and depth pairing, or
// nil if the combination does not exist.
func Lookup(dir Direction, std Standard, inDepth, outDepth int) *Matrix {
	return tables[tableKey{dir, std, inDepth, outDepth}]
}

// All returns every table; used by tests and the routine listing.
func All() []*Matrix {
	out := make([]*Matrix, 0, len(tables))
	for _, dir := range []Direction{Forward, Inverse} {
		for std := Standard(0); std < standardCount; std++ {
			for _, in := range depths {
				for _, o := range depths {
					out = append(out, tables[tableKey{dir, std, in, o}])
				}
			}
		}
	}
	return out
}

var depths = []int{8, 10}

func buildTables() map[tableKey]*Matrix {
	t := make(map[tableKey]*Matrix)
	for std := Standard(0); std < standardCount; std++ {
		for _, in := range depths {
			for _, out := range depths {
				t[tableKey{Forward, std, in, out}] = buildForward(std, in, out)
				t[tableKey{Inverse, std, in, out}] = buildInverse(std, in, out)
			}
		}
	}
	return t
}

// depthScale is the factor between samples of depth out and depth in.
func depthScale(in, out int) float64 {
	return math.Ldexp(1, out-in)
}

func buildForward(std Standard, in, out int) *Matrix {
	f := forwardFloat[std]
	scale := depthScale(in, out)
	var scaled [3][3]float64
	for i := range f {
		for j := range f[i] {
			scaled[i][j] = f[i][j] * scale
		}
	}

	m := &Matrix{Direction: Forward, Standard: std, InDepth: in, OutDepth: out}
	m.Shift = pickShift(scaled)
	m.Coef = quantize(scaled, m.Shift)

	// Zero-sum chroma rows: gray input must land exactly on the chroma offset.
	m.Coef[1][2] = -(m.Coef[1][0] + m.Coef[1][1])
	m.Coef[2][0] = -(m.Coef[2][1] + m.Coef[2][2])

	unit := int32(1) << (out - 8)
	m.Offset = [3]int32{forwardLumaOffset[std] * unit, 128 * unit, 128 * unit}
	return m
}

func buildInverse(std Standard, in, out int) *Matrix {
	f := inverseFloat[std]
	scale := depthScale(in, out)
	var scaled [3][3]float64
	for i := range f {
		for j := range f[i] {
			scaled[i][j] = f[i][j] * scale
		}
	}

	m := &Matrix{Direction: Inverse, Standard: std, InDepth: in, OutDepth: out}
	m.Shift = pickShift(scaled)
	m.Coef = quantize(scaled, m.Shift)

	unit := int32(1) << (in - 8)
	m.Offset = [3]int32{-forwardLumaOffset[std] * unit, -128 * unit, -128 * unit}
	return m
}

func pickShift(c [3][3]float64) uint {
	var peak float64
	for i := range c {
		for j := range c[i] {
			peak = math.Max(peak, math.Abs(c[i][j]))
		}
	}
	for s := uint(maxShift); s > minShift; s-- {
		if math.Round(math.Ldexp(peak, int(s))) <= laneMax {
			return s
		}
	}
	return minShift
}

func quantize(c [3][3]float64, shift uint) [3][3]int32 {
	var q [3][3]int32
	for i := range c {
		for j := range c[i] {
			q[i][j] = int32(math.Round(math.Ldexp(c[i][j], int(shift))))
		}
	}
	return q
}

// Matrices from http://www.equasys.de/colorconversion.html.
var forwardFloat = [standardCount][3][3]float64{
	FullRange: {
		{0.299, 0.587, 0.114},
		{-0.169, -0.331, 0.500},
		{0.500, -0.419, -0.081},
	},
	BT601: {
		{0.257, 0.504, 0.098},
		{-0.148, -0.291, 0.439},
		{0.439, -0.368, -0.071},
	},
	BT709: {
		{0.183, 0.614, 0.062},
		{-0.101, -0.339, 0.439},
		{0.439, -0.399, -0.040},
	},
}

var inverseFloat = [standardCount][3][3]float64{
	FullRange: {
		{1.000, 0.000, 1.400},
		{1.000, -0.343, -0.711},
		{1.000, 1.765, 0.000},
	},
	BT601: {
		{1.164, 0.000, 1.596},
		{1.164, -0.392, -0.813},
		{1.164, 2.017, 0.000},
	},
	BT709: {
		{1.164, 0.000, 1.793},
		{1.164, -0.213, -0.533},
		{1.164, 2.112, 0.000},
	},
}

var forwardLumaOffset = [standardCount]int32{FullRange: 0, BT601: 16, BT709: 16}
