package codec

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// ProgressFunc receives the bytes processed so far and the expected total.
// total may be zero when the size is unknown.
type ProgressFunc func(processed, total int64)

// Codec compresses and decompresses a single byte stream.
type Codec interface {
	Kind() Kind
	// LevelRange returns the inclusive range of accepted levels.
	LevelRange() (Level, Level)
	// Compress reads src until EOF and writes the compressed stream to dst.
	// Progress is measured in uncompressed bytes read from src.
	Compress(ctx context.Context, src io.Reader, dst io.Writer, level Level, total int64, onProgress ProgressFunc) error
	// Decompress reads a compressed stream from src and writes the payload to dst.
	// Progress is measured in compressed bytes consumed from src.
	Decompress(ctx context.Context, src io.Reader, dst io.Writer, total int64, onProgress ProgressFunc) error
}

// New returns the codec for the given kind.
func New(kind Kind) (Codec, error) {
	switch kind {
	case KindHighRatio:
		return NewXZ(), nil
	case KindFast:
		return NewZstd(), nil
	default:
		return nil, errors.Errorf("unknown codec kind: %q", kind)
	}
}
