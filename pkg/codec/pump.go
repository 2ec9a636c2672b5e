package codec

import (
	"context"
	"io"
)

const chunkSize = 32 * 1024

type side int

const (
	sideNone side = iota
	sideRead
	sideWrite
)

// countingReader counts consumed bytes and keeps the first non-EOF failure of
// the wrapped reader, so decoder errors can be told apart from I/O errors.
type countingReader struct {
	r   io.Reader
	n   int64
	err error
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if err != nil && err != io.EOF && c.err == nil {
		c.err = err
	}
	return n, err
}

// pump copies src to dst in fixed chunks. ctx is checked before every chunk
// and onChunk runs after every successful write and once more at EOF. The
// returned side tells which end failed; sideNone with a non-nil error means
// ctx was done.
func pump(ctx context.Context, dst io.Writer, src io.Reader, onChunk func()) (side, error) {
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return sideNone, err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return sideWrite, werr
			}
			onChunk()
		}
		if rerr == io.EOF {
			onChunk()
			return sideNone, nil
		} else if rerr != nil {
			return sideRead, rerr
		}
	}
}

func reporter(c *countingReader, total int64, onProgress ProgressFunc) func() {
	if onProgress == nil {
		return func() {}
	}
	return func() {
		onProgress(c.n, total)
	}
}

// classifyDecode maps a failure from the decoding side. A failure of the
// underlying source is an I/O error; anything the decoder raised on its own
// means the stream itself is damaged.
func classifyDecode(codec Kind, src *countingReader, err error) error {
	if src.err != nil {
		return ioError(codec, "decompress", src.err)
	}
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return corruptError(codec, "decompress", err)
}
