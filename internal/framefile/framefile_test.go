package framefile

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i * 7 / 3)
	}
	return b
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	data := frame(64 * 1024)

	tests := []struct {
		name       string
		file       string
		compressed bool
	}{
		{"raw", "frame.yuyv", false},
		{"compressed", "frame.yuyv.zst", true},
		{"compressed upper case", "FRAME.ARGB.ZST", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, Write(path, data))
			assert.Equal(t, tt.compressed, Compressed(path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			if tt.compressed {
				assert.Less(t, info.Size(), int64(len(data)))
			} else {
				assert.Equal(t, int64(len(data)), info.Size())
			}

			got, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestReadInto(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.raw.zst")
	data := frame(4096)
	require.NoError(t, Write(path, data))

	buf := make([]byte, len(data))
	require.NoError(t, ReadInto(path, buf))
	assert.Equal(t, data, buf)

	err := ReadInto(path, make([]byte, len(data)+1))
	assert.ErrorIs(t, err, ErrSizeMismatch)
	assert.Contains(t, err.Error(), "holds 4096 bytes")

	assert.Error(t, ReadInto(filepath.Join(dir, "missing.raw"), buf))
}

func TestReadIntoStopsPastFrame(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"big.raw", "big.raw.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Write(path, make([]byte, 4<<20)))

			buf := make([]byte, 1024)
			err := ReadInto(path, buf)
			assert.ErrorIs(t, err, ErrSizeMismatch)
			assert.Contains(t, err.Error(), "more than 1024 bytes")
		})
	}
}

func TestDecompressLimit(t *testing.T) {
	c, err := Compress(make([]byte, 1<<20))
	require.NoError(t, err)
	assert.Less(t, len(c), 1<<10)

	_, err = decompress(c, 64<<10)
	assert.ErrorIs(t, err, ErrTooLarge)

	out, err := decompress(c, 1<<20)
	require.NoError(t, err)
	assert.Len(t, out, 1<<20)
}

func TestReadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zst")
	require.NoError(t, os.WriteFile(path, []byte("not zstd at all"), 0o644))
	_, err := Read(path)
	assert.Error(t, err)
}

func TestCompressConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			data := frame(1000 + n*100)
			c, err := Compress(data)
			assert.NoError(t, err)
			d, err := Decompress(c)
			assert.NoError(t, err)
			assert.True(t, bytes.Equal(data, d))
		}(i)
	}
	wg.Wait()
}

func BenchmarkCompress(b *testing.B) {
	data := frame(1920 * 1080 * 2)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		if _, err := Compress(data); err != nil {
			b.Fatal(err)
		}
	}
}
