package pipeline

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/foomo/discstorage/pkg/archive"
	"github.com/foomo/discstorage/pkg/codec"
	"github.com/pkg/errors"
)

const fileBufferSize = 256 * 1024

func ioError(op, path string, err error) error {
	return &archive.IOError{Op: op, Path: path, Err: err}
}

// compressFile runs c over src and writes the artifact to dst. It returns the
// artifact size.
func compressFile(ctx context.Context, c codec.Codec, src, dst string, level codec.Level, onProgress codec.ProgressFunc) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, ioError("open", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, ioError("stat", src, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, ioError("create", dst, err)
	}
	defer out.Close()

	w := bufio.NewWriterSize(out, fileBufferSize)
	if err := c.Compress(ctx, bufio.NewReaderSize(in, fileBufferSize), w, level, info.Size(), onProgress); err != nil {
		return 0, err
	}
	if err := w.Flush(); err != nil {
		return 0, ioError("write", dst, err)
	}
	if err := out.Sync(); err != nil {
		return 0, ioError("sync", dst, err)
	}

	stat, err := out.Stat()
	if err != nil {
		return 0, ioError("stat", dst, err)
	}
	return stat.Size(), nil
}

// decompressFile restores the archive in src into dst and returns its size.
func decompressFile(ctx context.Context, c codec.Codec, src, dst string, onProgress codec.ProgressFunc) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, ioError("open", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, ioError("stat", src, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, ioError("create", dst, err)
	}
	defer out.Close()

	w := bufio.NewWriterSize(out, fileBufferSize)
	if err := c.Decompress(ctx, in, w, info.Size(), onProgress); err != nil {
		return 0, err
	}
	if err := w.Flush(); err != nil {
		return 0, ioError("write", dst, err)
	}

	stat, err := out.Stat()
	if err != nil {
		return 0, ioError("stat", dst, err)
	}
	return stat.Size(), nil
}

// detectKind reads the artifact header to pick a codec.
func detectKind(path string) (codec.Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", ioError("open", path, err)
	}
	defer f.Close()

	header := make([]byte, codec.MagicLen)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", ioError("read", path, err)
	}
	kind, ok := codec.Detect(header[:n])
	if !ok {
		return "", &codec.Error{Op: "detect", Kind: codec.KindCorrupt, Err: errors.New("unrecognized artifact format")}
	}
	return kind, nil
}
