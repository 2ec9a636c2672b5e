package codec

import (
	"context"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Zstd is the fast codec writing a single Zstandard frame.
type Zstd struct{}

func NewZstd() *Zstd {
	return &Zstd{}
}

func (c *Zstd) Kind() Kind {
	return KindFast
}

func (c *Zstd) LevelRange() (Level, Level) {
	return MinLevel, MaxLevel
}

// NativeLevel maps a level onto the zstd scale (1, 3, ... 19).
func (c *Zstd) NativeLevel(level Level) int {
	return 1 + 2*int(level)
}

func (c *Zstd) Compress(ctx context.Context, src io.Reader, dst io.Writer, level Level, total int64, onProgress ProgressFunc) error {
	if !level.In(c.LevelRange()) {
		return errors.Errorf("zstd level %d out of range", level)
	}

	zw, err := zstd.NewWriter(dst,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(c.NativeLevel(level))),
		zstd.WithEncoderConcurrency(1),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create zstd encoder")
	}

	in := &countingReader{r: src}
	if s, err := pump(ctx, zw, in, reporter(in, total, onProgress)); err != nil {
		// drop buffered blocks instead of flushing them into dst
		zw.Reset(io.Discard)
		_ = zw.Close()
		if s == sideNone {
			return err
		}
		return ioError(c.Kind(), "compress", err)
	}

	if err := zw.Close(); err != nil {
		return ioError(c.Kind(), "compress", err)
	}
	return nil
}

func (c *Zstd) Decompress(ctx context.Context, src io.Reader, dst io.Writer, total int64, onProgress ProgressFunc) error {
	in := &countingReader{r: src}
	zr, err := zstd.NewReader(in, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return classifyDecode(c.Kind(), in, err)
	}
	defer zr.Close()

	s, err := pump(ctx, dst, zr, reporter(in, total, onProgress))
	switch {
	case err == nil:
		return nil
	case s == sideRead:
		return classifyDecode(c.Kind(), in, err)
	case s == sideWrite:
		return ioError(c.Kind(), "decompress", err)
	default:
		return err
	}
}
