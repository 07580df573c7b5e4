// Package pixconv converts uncompressed video frames between packed and
// planar RGB and YUV formats.
//
// A Converter is created once per (source, destination, size, colorimetry)
// combination. New validates the configuration and picks the fastest routine
// the CPU supports; Convert then runs it with no further checks:
//
//	c, err := pixconv.New(pixconv.Config{
//		Source: pixconv.ARGB, Dest: pixconv.YUYV,
//		Width: 1920, Height: 1080,
//		Standard: pixconv.BT709,
//	})
//	if err != nil {
//		return err
//	}
//	c.Convert(src, dst)
package pixconv

import (
	"fmt"

	"github.com/rcarmo/pixconv/internal/colormatrix"
	"github.com/rcarmo/pixconv/internal/convert"
	"github.com/rcarmo/pixconv/internal/cpu"
	"github.com/rcarmo/pixconv/internal/pixfmt"
)

type (
	Format     = pixfmt.Format
	Standard   = colormatrix.Standard
	Resampling = convert.Resampling
	Flags      = convert.Flags
	CPUMask    = cpu.Mask
)

const (
	YUYV    = pixfmt.YUYV
	UYVY    = pixfmt.UYVY
	YUV422P = pixfmt.YUV422P
	YUV420P = pixfmt.YUV420P
	ARGB    = pixfmt.ARGB
	BGRA    = pixfmt.BGRA
	RGB24   = pixfmt.RGB24
	BGR24   = pixfmt.BGR24
	R210    = pixfmt.R210
	R10K    = pixfmt.R10K
	V210    = pixfmt.V210

	FullRange = colormatrix.FullRange
	BT601     = colormatrix.BT601
	BT709     = colormatrix.BT709

	Average = convert.Average
	Nearest = convert.Nearest

	NoSIMD       = convert.NoSIMD
	BaselineOnly = convert.BaselineOnly

	CPUNone  = cpu.None
	CPUSSE2  = cpu.SSE2
	CPUSSSE3 = cpu.SSSE3
	CPUSSE41 = cpu.SSE41
)

var (
	ErrUnsupportedPair   = convert.ErrUnsupportedPair
	ErrInvalidDimensions = convert.ErrInvalidDimensions
	ErrOddDimensions     = convert.ErrOddDimensions
	ErrBufferTooSmall    = convert.ErrBufferTooSmall
	ErrUnknownStandard   = convert.ErrUnknownStandard
)

// Config describes one conversion.
type Config struct {
	Source, Dest Format
	Width        int
	Height       int
	Standard     Standard
	Resampling   Resampling
	Flags        Flags
}

func (c Config) request() convert.Request {
	return convert.Request{
		Src:        c.Source,
		Dst:        c.Dest,
		Width:      c.Width,
		Height:     c.Height,
		Standard:   c.Standard,
		Resampling: c.Resampling,
		Flags:      c.Flags,
	}
}

// Option configures New.
type Option func(*options)

type options struct {
	selector *convert.Selector
}

// WithSelector resolves against s instead of the process-wide selector.
func WithSelector(s *convert.Selector) Option {
	return func(o *options) { o.selector = s }
}

// WithCapabilities resolves as if the CPU had exactly the features in m.
func WithCapabilities(m cpu.Mask) Option {
	return func(o *options) { o.selector = convert.NewSelector(nil, convert.WithCapabilities(m)) }
}

// Converter runs one resolved conversion routine. It is immutable and safe
// for concurrent use on disjoint buffers.
type Converter struct {
	cfg     Config
	routine *convert.Routine
	srcSize int
	dstSize int
}

// New validates cfg and resolves the routine that will serve it.
func New(cfg Config, opts ...Option) (*Converter, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.selector == nil {
		o.selector = convert.Default()
	}

	r, err := o.selector.Resolve(cfg.request())
	if err != nil {
		return nil, fmt.Errorf("pixconv: %w", err)
	}
	return &Converter{
		cfg:     cfg,
		routine: r,
		srcSize: pixfmt.ImageSize(cfg.Source, cfg.Width, cfg.Height),
		dstSize: pixfmt.ImageSize(cfg.Dest, cfg.Width, cfg.Height),
	}, nil
}

// Config returns the configuration the converter was built from.
func (c *Converter) Config() Config { return c.cfg }

// Convert converts one frame from src into dst. src must hold at least
// SourceSize bytes and dst at least DestSize bytes; shorter buffers panic.
func (c *Converter) Convert(src, dst []byte) {
	c.routine.Convert(src, dst)
}

// ConvertChecked is Convert with the buffer lengths checked first.
func (c *Converter) ConvertChecked(src, dst []byte) error {
	if len(src) < c.srcSize {
		return fmt.Errorf("%w: source %s holds %d bytes, need %d", ErrBufferTooSmall, c.cfg.Source, len(src), c.srcSize)
	}
	if len(dst) < c.dstSize {
		return fmt.Errorf("%w: destination %s holds %d bytes, need %d", ErrBufferTooSmall, c.cfg.Dest, len(dst), c.dstSize)
	}
	c.routine.Convert(src, dst)
	return nil
}

// SourceSize is the byte length of one source frame.
func (c *Converter) SourceSize() int { return c.srcSize }

// DestSize is the byte length of one destination frame.
func (c *Converter) DestSize() int { return c.dstSize }

// UsesSIMD reports whether the resolved routine runs lane kernels.
func (c *Converter) UsesSIMD() bool { return c.routine.Vectorized() }

// RoutineInfo describes the routine a Converter resolved to.
type RoutineInfo struct {
	Name           string `json:"name"`
	Family         string `json:"family"`
	Requires       string `json:"requires"`
	PixelMultiple  int    `json:"pixelMultiple"`
	HeightMultiple int    `json:"heightMultiple"`
	SIMD           bool   `json:"simd"`
}

// Routine describes the resolved routine.
func (c *Converter) Routine() RoutineInfo {
	r := c.routine
	return RoutineInfo{
		Name:           r.Name,
		Family:         r.Family,
		Requires:       r.Requires.String(),
		PixelMultiple:  r.PixelMultiple,
		HeightMultiple: r.HeightMultiple,
		SIMD:           r.Vectorized(),
	}
}

// ParseFormat maps a format name such as "yuyv" or "i420" to a Format.
func ParseFormat(name string) (Format, error) { return pixfmt.Parse(name) }

// ParseStandard maps "full", "bt601" or "bt709" to a Standard.
func ParseStandard(name string) (Standard, error) { return colormatrix.ParseStandard(name) }

// ParseResampling maps "avg" or "nnb" to a Resampling.
func ParseResampling(name string) (Resampling, error) { return convert.ParseResampling(name) }

// ImageSize returns the byte length of a width x height frame in f.
func ImageSize(f Format, width, height int) int { return pixfmt.ImageSize(f, width, height) }

// Formats lists every supported format.
func Formats() []Format { return pixfmt.All() }
