package codec

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// xzDictCaps follows the dictionary sizes of the xz presets 0-9.
var xzDictCaps = [...]int{
	256 << 10,
	1 << 20,
	2 << 20,
	4 << 20,
	4 << 20,
	8 << 20,
	8 << 20,
	16 << 20,
	32 << 20,
	64 << 20,
}

// XZ is the high ratio codec writing LZMA2 in an xz container.
type XZ struct{}

func NewXZ() *XZ {
	return &XZ{}
}

func (c *XZ) Kind() Kind {
	return KindHighRatio
}

func (c *XZ) LevelRange() (Level, Level) {
	return MinLevel, MaxLevel
}

func (c *XZ) Compress(ctx context.Context, src io.Reader, dst io.Writer, level Level, total int64, onProgress ProgressFunc) error {
	if !level.In(c.LevelRange()) {
		return errors.Errorf("xz level %d out of range", level)
	}

	cfg := xz.WriterConfig{
		DictCap: xzDictCaps[level],
		Matcher: lzma.HashTable4,
	}
	if err := cfg.Verify(); err != nil {
		return errors.Wrap(err, "invalid xz writer config")
	}

	zw, err := cfg.NewWriter(dst)
	if err != nil {
		return ioError(c.Kind(), "compress", err)
	}

	in := &countingReader{r: src}
	if s, err := pump(ctx, zw, in, reporter(in, total, onProgress)); err != nil {
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

func (c *XZ) Decompress(ctx context.Context, src io.Reader, dst io.Writer, total int64, onProgress ProgressFunc) error {
	in := &countingReader{r: src}
	zr, err := xz.NewReader(in)
	if err != nil {
		return classifyDecode(c.Kind(), in, err)
	}

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
