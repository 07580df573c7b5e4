// Command pixconv converts raw video frames between pixel formats.
//
//	pixconv -src argb -dst yuyv -width 1920 -height 1080 -in frame.argb -out frame.yuyv
//	pixconv -dst v210 -width 1920 -height 1080 -pattern bars -out bars.v210.zst
//	pixconv -list -src argb -dst yuyv -width 1920 -height 1080
//
// Files ending in .zst are read and written zstd-compressed.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rcarmo/pixconv/internal/config"
	"github.com/rcarmo/pixconv/internal/convert"
	"github.com/rcarmo/pixconv/internal/cpu"
	"github.com/rcarmo/pixconv/internal/framefile"
	"github.com/rcarmo/pixconv/internal/logging"
	"github.com/rcarmo/pixconv/internal/pattern"
	"github.com/rcarmo/pixconv/internal/pixfmt"
	"github.com/rcarmo/pixconv/pkg/pixconv"
)

const appVersion = "v0.3.0"

var (
	logger  = logging.Default().With("pixconv")
	errHelp = errors.New("help requested")
)

type cliArgs struct {
	src, dst      string
	width, height int
	standard      string
	nnb           bool
	noSIMD        bool
	baselineOnly  bool
	in, out       string
	pattern       string
	repeat        int
	list          bool
	logLevel      string
	version       bool
}

func parseArgs(args []string, stderr io.Writer) (cliArgs, error) {
	var a cliArgs
	fs := flag.NewFlagSet("pixconv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&a.src, "src", "argb", "source format")
	fs.StringVar(&a.dst, "dst", "", "destination format")
	fs.IntVar(&a.width, "width", 0, "frame width in pixels")
	fs.IntVar(&a.height, "height", 0, "frame height in pixels")
	fs.StringVar(&a.standard, "standard", "", "colorimetry: full, bt601 or bt709 (default from PIXCONV_STANDARD)")
	fs.BoolVar(&a.nnb, "nnb", false, "nearest-neighbour chroma resampling")
	fs.BoolVar(&a.noSIMD, "no-simd", false, "use the scalar routine")
	fs.BoolVar(&a.baselineOnly, "baseline-only", false, "use at most SSE2-tier routines")
	fs.StringVar(&a.in, "in", "", "input frame file (.zst is decompressed)")
	fs.StringVar(&a.out, "out", "", "output frame file (.zst is compressed)")
	fs.StringVar(&a.pattern, "pattern", "", "generate the source frame: gray, gradient, bars or random[:seed]")
	fs.IntVar(&a.repeat, "repeat", 1, "convert this many times and report throughput")
	fs.BoolVar(&a.list, "list", false, "list formats, or the candidates for -src/-dst")
	fs.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.BoolVar(&a.version, "version", false, "show version")
	help := fs.Bool("help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return a, err
	}
	if *help {
		fs.Usage()
		return a, errHelp
	}
	return a, nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errHelp) || errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "pixconv: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	a, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	if a.version {
		fmt.Fprintf(stdout, "pixconv %s (%s)\n", appVersion, cpu.Describe())
		return nil
	}

	opts := config.LoadOptions{LogLevel: a.logLevel, Standard: a.standard}
	if a.nnb {
		opts.Resampling = "nnb"
	}
	if a.noSIMD {
		opts.NoSIMD = &a.noSIMD
	}
	if a.baselineOnly {
		opts.BaselineOnly = &a.baselineOnly
	}
	cfg, err := config.LoadWithOverrides(opts)
	if err != nil {
		return err
	}
	logging.SetLevelFromString(cfg.Logging.Level)

	if a.list && a.dst == "" {
		return listFormats(stdout)
	}

	conv, err := converterConfig(a, &cfg.Conversion)
	if err != nil {
		return err
	}
	if a.list {
		return listCandidates(stdout, conv)
	}
	return convertFrame(stdout, a, conv)
}

func converterConfig(a cliArgs, defaults *config.ConversionConfig) (pixconv.Config, error) {
	std, res, flags := defaults.Defaults()
	c := pixconv.Config{Width: a.width, Height: a.height, Standard: std, Resampling: res, Flags: flags}

	var err error
	if c.Source, err = pixconv.ParseFormat(a.src); err != nil {
		return c, err
	}
	if a.dst == "" {
		return c, errors.New("-dst is required")
	}
	if c.Dest, err = pixconv.ParseFormat(a.dst); err != nil {
		return c, err
	}
	if a.width <= 0 || a.height <= 0 {
		return c, errors.New("-width and -height are required")
	}
	return c, nil
}

func listFormats(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FORMAT\tKIND\tDEPTH\tBYTES/PIXEL\tSIZE MULTIPLE")
	for _, f := range pixconv.Formats() {
		d := pixfmt.Describe(f)
		kind := "yuv"
		if f.IsRGB() {
			kind = "rgb"
		}
		if d.Planar {
			kind += " planar"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d/%d\t%dx%d\n", d.Name, kind, d.BitDepth,
			d.BytesPerPixelNum, d.BytesPerPixelDen, d.WidthMultiple, d.HeightMultiple)
	}
	return tw.Flush()
}

func listCandidates(w io.Writer, c pixconv.Config) error {
	sel := convert.Default()
	req := convert.Request{
		Src: c.Source, Dst: c.Dest, Width: c.Width, Height: c.Height,
		Standard: c.Standard, Resampling: c.Resampling, Flags: c.Flags,
	}
	statuses := sel.Candidates(req)
	if len(statuses) == 0 {
		return fmt.Errorf("%w: %s->%s", pixconv.ErrUnsupportedPair, c.Source, c.Dest)
	}

	fmt.Fprintf(w, "%s on %s\n", req, cpu.Describe())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CANDIDATE\tREQUIRES\tPRIORITY\tELIGIBLE")
	for _, st := range statuses {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%t\n", st.Name, st.Requires, st.Priority, st.Eligible)
	}
	return tw.Flush()
}

func convertFrame(w io.Writer, a cliArgs, c pixconv.Config) error {
	conv, err := pixconv.New(c)
	if err != nil {
		return err
	}

	src, err := sourceFrame(a, conv)
	if err != nil {
		return err
	}
	if len(src) != conv.SourceSize() {
		return fmt.Errorf("%s holds %d bytes, a %dx%d %s frame is %d", a.in, len(src),
			c.Width, c.Height, c.Source, conv.SourceSize())
	}

	dst := make([]byte, conv.DestSize())
	repeat := max(a.repeat, 1)
	start := time.Now()
	for i := 0; i < repeat; i++ {
		if err := conv.ConvertChecked(src, dst); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	info := conv.Routine()
	logger.Debug("%s converted %d frame(s) in %s", info.Name, repeat, elapsed)
	fmt.Fprintf(w, "%s->%s %dx%d via %s\n", c.Source, c.Dest, c.Width, c.Height, info.Name)
	if repeat > 1 {
		per := elapsed / time.Duration(repeat)
		mpix := float64(c.Width*c.Height*repeat) / elapsed.Seconds() / 1e6
		fmt.Fprintf(w, "%d frames, %s/frame, %.1f Mpixel/s\n", repeat, per, mpix)
	}

	if a.out == "" {
		return nil
	}
	if err := framefile.Write(a.out, dst); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %s (%d bytes raw)\n", a.out, len(dst))
	return nil
}

func sourceFrame(a cliArgs, conv *pixconv.Converter) ([]byte, error) {
	c := conv.Config()
	switch {
	case a.in != "" && a.pattern != "":
		return nil, errors.New("-in and -pattern are mutually exclusive")
	case a.in != "":
		buf := make([]byte, conv.SourceSize())
		if err := framefile.ReadInto(a.in, buf); err != nil {
			return nil, err
		}
		return buf, nil
	case a.pattern != "":
		p, err := pattern.Parse(a.pattern)
		if err != nil {
			return nil, err
		}
		return pattern.New(c.Source, c.Width, c.Height, p, c.Standard)
	}
	return nil, errors.New("one of -in or -pattern is required")
}
