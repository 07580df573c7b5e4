// Package framefile reads and writes raw frame files. Paths ending in
// ".zst" are zstd-compressed on the fly.
package framefile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrSizeMismatch is returned by ReadInto when the file does not hold
// exactly one frame.
var ErrSizeMismatch = errors.New("framefile: size mismatch")

// ErrTooLarge is returned when a compressed frame decodes past MaxFrameBytes.
var ErrTooLarge = errors.New("framefile: decoded frame too large")

// CompressedExt marks compressed frame files.
const CompressedExt = ".zst"

// MaxFrameBytes caps what Read and Decompress will inflate. It is well above
// a 4096x2160 frame in any supported format.
const MaxFrameBytes = 256 << 20

var encPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		return enc
	},
}

var decPool = sync.Pool{
	New: func() any {
		dec, _ := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(MaxFrameBytes))
		return dec
	},
}

// Compressed reports whether path names a compressed frame file.
func Compressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), CompressedExt)
}

// Read returns the frame bytes stored at path.
func Read(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !Compressed(path) {
		return raw, nil
	}
	out, err := Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("framefile: %s: %w", path, err)
	}
	return out, nil
}

// ReadInto reads the frame at path into buf, which must be exactly the
// frame size. Compressed files are decoded straight into buf and never
// inflate more than one byte past it.
func ReadInto(path string, buf []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if Compressed(path) {
		dec := decPool.Get().(*zstd.Decoder)
		defer decPool.Put(dec)
		if err := dec.Reset(bufio.NewReader(f)); err != nil {
			return fmt.Errorf("framefile: %s: zstd decode: %w", path, err)
		}
		r = dec
	}

	n, err := io.ReadFull(r, buf)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %s holds %d bytes, frame is %d", ErrSizeMismatch, path, n, len(buf))
	case err != nil:
		return fmt.Errorf("framefile: %s: %w", path, err)
	}

	var extra [1]byte
	switch m, err := io.ReadFull(r, extra[:]); {
	case m > 0:
		return fmt.Errorf("%w: %s holds more than %d bytes", ErrSizeMismatch, path, len(buf))
	case !errors.Is(err, io.EOF):
		return fmt.Errorf("framefile: %s: %w", path, err)
	}
	return nil
}

// Write stores data at path, compressing it when the path asks for it.
func Write(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := encode(w, data, Compressed(path)); err != nil {
		f.Close()
		return fmt.Errorf("framefile: %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encode(w io.Writer, data []byte, compress bool) error {
	if !compress {
		_, err := w.Write(data)
		return err
	}
	enc := encPool.Get().(*zstd.Encoder)
	defer encPool.Put(enc)
	enc.Reset(w)
	if _, err := enc.Write(data); err != nil {
		_ = enc.Close()
		return fmt.Errorf("zstd encode: %w", err)
	}
	return enc.Close()
}

// Compress returns data as one zstd frame.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, data, true); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress. Output past MaxFrameBytes fails with
// ErrTooLarge.
func Decompress(data []byte) ([]byte, error) {
	return decompress(data, MaxFrameBytes)
}

func decompress(data []byte, limit int64) ([]byte, error) {
	dec := decPool.Get().(*zstd.Decoder)
	defer decPool.Put(dec)
	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	var out bytes.Buffer
	n, err := out.ReadFrom(io.LimitReader(dec, limit+1))
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	if n > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return out.Bytes(), nil
}
