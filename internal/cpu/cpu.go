// Package cpu detects the vector instruction tiers available to the
// conversion kernels.
//
// Detection runs once, on the first call to Capabilities, and the result is
// published atomically. Every goroutine computes the same value from the same
// hardware query, so a lost first-touch race only repeats idempotent work.
package cpu

import (
	"runtime"
	"strings"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Mask is a bitmask of instruction tiers.
type Mask uint64

const (
	SSE2 Mask = 1 << iota
	SSSE3
	SSE41
	AVX2
)

// None is the requirement satisfied by every CPU. It is distinct from the
// empty mask so that a catalog entry can state "no requirement" explicitly.
const None Mask = ^Mask(0)

// valid marks a published detection result; it is never a tier bit.
const valid Mask = 1 << 63

var maskNames = []struct {
	bit  Mask
	name string
}{
	{SSE2, "sse2"},
	{SSSE3, "ssse3"},
	{SSE41, "sse41"},
	{AVX2, "avx2"},
}

var (
	detected atomic.Uint64
	forced   atomic.Uint64
)

// Capabilities returns the tiers supported by the running CPU.
func Capabilities() Mask {
	if f := Mask(forced.Load()); f&valid != 0 {
		return f &^ valid
	}
	if d := Mask(detected.Load()); d&valid != 0 {
		return d &^ valid
	}
	d := detect()
	detected.Store(uint64(d | valid))
	return d
}

// Supports reports whether mask satisfies required: either required is None,
// or every bit of required is present in mask.
func Supports(mask, required Mask) bool {
	if required == None {
		return true
	}
	return mask&required == required
}

func detect() Mask {
	var m Mask
	switch runtime.GOARCH {
	case "amd64", "386":
		if cpu.X86.HasSSE2 {
			m |= SSE2
		}
		if cpu.X86.HasSSSE3 {
			m |= SSSE3
		}
		if cpu.X86.HasSSE41 {
			m |= SSE41
		}
		if cpu.X86.HasAVX2 {
			m |= AVX2
		}
	case "arm64":
		// ASIMD has an equivalent for every 128-bit lane operation the
		// kernels use (tbl for pshufb, bsl for blendv).
		if cpu.ARM64.HasASIMD {
			m |= SSE2 | SSSE3 | SSE41
		}
	}
	return m
}

// Force overrides detection until Reset is called. Intended for tests.
func Force(m Mask) {
	forced.Store(uint64((m &^ valid) | valid))
}

// Reset clears any forced mask and the detection cache.
func Reset() {
	forced.Store(0)
	detected.Store(0)
}

func (m Mask) String() string {
	if m == None {
		return "none-required"
	}
	var parts []string
	for _, n := range maskNames {
		if m&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "scalar"
	}
	return strings.Join(parts, "|")
}

// Describe summarises the detected tiers for log output.
func Describe() string {
	return runtime.GOARCH + ": " + Capabilities().String()
}
