package codec

import (
	"bytes"
	"context"
	"io"
	"math/rand/v2"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	var seed [32]byte
	copy(seed[:], t.Name())
	buf := make([]byte, n)
	_, _ = rand.NewChaCha8(seed).Read(buf)
	return buf
}

func textBytes(n int) []byte {
	line := []byte("the quick brown fox jumps over the lazy dog 0123456789\n")
	return bytes.Repeat(line, n/len(line)+1)[:n]
}

func compress(t *testing.T, c Codec, data []byte, level Level) []byte {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, c.Compress(t.Context(), bytes.NewReader(data), &out, level, int64(len(data)), nil))
	return out.Bytes()
}

func allCodecs() []Codec {
	return []Codec{NewXZ(), NewZstd()}
}

func TestNew(t *testing.T) {
	c, err := New(KindHighRatio)
	require.NoError(t, err)
	assert.Equal(t, KindHighRatio, c.Kind())

	c, err = New(KindFast)
	require.NoError(t, err)
	assert.Equal(t, KindFast, c.Kind())

	_, err = New("brotli")
	require.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	data := textBytes(300 * 1024)
	for _, c := range allCodecs() {
		t.Run(c.Kind().String(), func(t *testing.T) {
			for _, level := range []Level{MinLevel, 5, MaxLevel} {
				compressed := compress(t, c, data, level)
				assert.Less(t, len(compressed), len(data))

				var out bytes.Buffer
				require.NoError(t, c.Decompress(t.Context(), bytes.NewReader(compressed), &out, int64(len(compressed)), nil))
				assert.Equal(t, data, out.Bytes())
			}
		})
	}
}

func TestRoundTripEmpty(t *testing.T) {
	for _, c := range allCodecs() {
		t.Run(c.Kind().String(), func(t *testing.T) {
			compressed := compress(t, c, nil, DefaultLevel)
			require.NotEmpty(t, compressed)

			var out bytes.Buffer
			require.NoError(t, c.Decompress(t.Context(), bytes.NewReader(compressed), &out, int64(len(compressed)), nil))
			assert.Equal(t, 0, out.Len())
		})
	}
}

func TestFastRandom10MB(t *testing.T) {
	data := randomBytes(t, 10*1024*1024)
	c := NewZstd()
	compressed := compress(t, c, data, 3)

	var out bytes.Buffer
	require.NoError(t, c.Decompress(t.Context(), bytes.NewReader(compressed), &out, int64(len(compressed)), nil))
	assert.True(t, bytes.Equal(data, out.Bytes()))
}

func TestLevelOutOfRange(t *testing.T) {
	for _, c := range allCodecs() {
		var out bytes.Buffer
		err := c.Compress(t.Context(), bytes.NewReader([]byte("x")), &out, 10, 1, nil)
		require.Error(t, err)
		assert.Equal(t, 0, out.Len())
	}
}

func TestCompressProgress(t *testing.T) {
	data := textBytes(200 * 1024)
	for _, c := range allCodecs() {
		t.Run(c.Kind().String(), func(t *testing.T) {
			var seen []int64
			err := c.Compress(t.Context(), bytes.NewReader(data), io.Discard, 1, int64(len(data)), func(processed, total int64) {
				assert.Equal(t, int64(len(data)), total)
				seen = append(seen, processed)
			})
			require.NoError(t, err)
			require.NotEmpty(t, seen)
			assert.IsNonDecreasing(t, seen)
			assert.Equal(t, int64(len(data)), seen[len(seen)-1])
		})
	}
}

func TestDecompressProgress(t *testing.T) {
	data := randomBytes(t, 256*1024)
	for _, c := range allCodecs() {
		t.Run(c.Kind().String(), func(t *testing.T) {
			compressed := compress(t, c, data, 1)
			var last int64
			err := c.Decompress(t.Context(), bytes.NewReader(compressed), io.Discard, int64(len(compressed)), func(processed, total int64) {
				assert.GreaterOrEqual(t, processed, last)
				last = processed
			})
			require.NoError(t, err)
			assert.Equal(t, int64(len(compressed)), last)
		})
	}
}

func TestDecompressCorrupt(t *testing.T) {
	garbage := []byte("this is certainly not a compressed stream")
	for _, c := range allCodecs() {
		t.Run(c.Kind().String(), func(t *testing.T) {
			err := c.Decompress(t.Context(), bytes.NewReader(garbage), io.Discard, int64(len(garbage)), nil)
			var cerr *Error
			require.True(t, errors.As(err, &cerr), "unexpected error: %v", err)
			assert.Equal(t, KindCorrupt, cerr.Kind)
			assert.True(t, cerr.Corrupt())
		})
	}
}

func TestDecompressTruncated(t *testing.T) {
	data := randomBytes(t, 128*1024)
	for _, c := range allCodecs() {
		t.Run(c.Kind().String(), func(t *testing.T) {
			compressed := compress(t, c, data, 1)
			truncated := compressed[:len(compressed)/2]
			err := c.Decompress(t.Context(), bytes.NewReader(truncated), io.Discard, int64(len(truncated)), nil)
			var cerr *Error
			require.True(t, errors.As(err, &cerr), "unexpected error: %v", err)
			assert.Equal(t, KindCorrupt, cerr.Kind)
		})
	}
}

type failingReader struct {
	r     io.Reader
	after int
	err   error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.after <= 0 {
		return 0, f.err
	}
	if len(p) > f.after {
		p = p[:f.after]
	}
	n, err := f.r.Read(p)
	f.after -= n
	return n, err
}

func TestDecompressSourceFailure(t *testing.T) {
	data := randomBytes(t, 256*1024)
	diskErr := errors.New("input/output error")
	for _, c := range allCodecs() {
		t.Run(c.Kind().String(), func(t *testing.T) {
			compressed := compress(t, c, data, 1)
			src := &failingReader{r: bytes.NewReader(compressed), after: 1024, err: diskErr}
			err := c.Decompress(t.Context(), src, io.Discard, int64(len(compressed)), nil)
			var cerr *Error
			require.True(t, errors.As(err, &cerr), "unexpected error: %v", err)
			assert.Equal(t, KindIO, cerr.Kind)
			assert.ErrorIs(t, err, diskErr)
		})
	}
}

type cancelAfterWriter struct {
	n      int
	cancel context.CancelFunc
}

func (w *cancelAfterWriter) Write(p []byte) (int, error) {
	w.n += len(p)
	if w.n > 64*1024 {
		w.cancel()
	}
	return len(p), nil
}

func TestCompressCanceled(t *testing.T) {
	data := randomBytes(t, 2*1024*1024)
	for _, c := range allCodecs() {
		t.Run(c.Kind().String(), func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()
			var chunks int
			err := c.Compress(ctx, bytes.NewReader(data), io.Discard, 0, int64(len(data)), func(processed, total int64) {
				chunks++
				if chunks == 2 {
					cancel()
				}
			})
			require.ErrorIs(t, err, context.Canceled)
			assert.Equal(t, 2, chunks)
		})
	}
}

func TestDecompressCanceled(t *testing.T) {
	data := textBytes(4 * 1024 * 1024)
	for _, c := range allCodecs() {
		t.Run(c.Kind().String(), func(t *testing.T) {
			compressed := compress(t, c, data, 1)
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()
			err := c.Decompress(ctx, bytes.NewReader(compressed), &cancelAfterWriter{cancel: cancel}, int64(len(compressed)), nil)
			require.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"highratio": KindHighRatio,
		"LZMA":      KindHighRatio,
		"xz":        KindHighRatio,
		"fast":      KindFast,
		"Zstd":      KindFast,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseKind("gzip")
	require.Error(t, err)
}

func TestDetect(t *testing.T) {
	for _, c := range allCodecs() {
		compressed := compress(t, c, []byte("hello"), 1)
		kind, ok := Detect(compressed[:MagicLen])
		require.True(t, ok)
		assert.Equal(t, c.Kind(), kind)
	}
	_, ok := Detect([]byte("ustar\x00"))
	assert.False(t, ok)
}
