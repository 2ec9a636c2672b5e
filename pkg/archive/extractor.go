package archive

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ProgressFunc receives the archive bytes consumed so far and the archive size.
type ProgressFunc func(processed, total int64)

type (
	Extractor struct {
		l      *zap.Logger
		policy ConflictPolicy
	}
	ExtractorOption func(*Extractor)
)

var ErrUnsafePath = errors.New("entry escapes destination")

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func ExtractorWithConflictPolicy(v ConflictPolicy) ExtractorOption {
	return func(o *Extractor) {
		o.policy = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewExtractor(l *zap.Logger, opts ...ExtractorOption) *Extractor {
	inst := &Extractor{
		l:      l,
		policy: ConflictRename,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (e *Extractor) Policy() ConflictPolicy {
	return e.policy
}

// Extract unpacks the archive at src into destDir and returns the paths it wrote.
func (e *Extractor) Extract(ctx context.Context, src, destDir string, onProgress ProgressFunc) ([]string, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, newIOError("open", src, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, newIOError("stat", src, err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, newIOError("mkdir", destDir, err)
	}

	in := &countingReader{r: f}
	tr := tar.NewReader(in)

	var written []string
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return written, newIOError("read", src, err)
		}

		target, err := targetPath(destDir, hdr.Name)
		if err != nil {
			return written, newIOError("extract", hdr.Name, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, newIOError("mkdir", target, err)
			}
		case tar.TypeReg:
			p, err := e.writeFile(tr, hdr, target)
			if err != nil {
				return written, err
			}
			if p != "" {
				written = append(written, p)
			}
		default:
			e.l.Debug("skipping unsupported entry", zap.String("name", hdr.Name), zap.Uint8("type", hdr.Typeflag))
		}

		if onProgress != nil {
			onProgress(in.n, info.Size())
		}
	}

	if onProgress != nil {
		onProgress(info.Size(), info.Size())
	}
	return written, nil
}

// List returns the entry names of the archive at src in archive order.
func List(ctx context.Context, src string) ([]string, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, newIOError("open", src, err)
	}
	defer f.Close()

	var names []string
	tr := tar.NewReader(f)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return names, nil
		} else if err != nil {
			return nil, newIOError("read", src, err)
		}
		names = append(names, hdr.Name)
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// writeFile writes one regular entry honoring the conflict policy. It returns
// the path written or "" when the entry was skipped.
func (e *Extractor) writeFile(r io.Reader, hdr *tar.Header, target string) (string, error) {
	if existing, err := os.Lstat(target); err == nil {
		switch e.policy {
		case ConflictSkip:
			e.l.Debug("skipping existing file", zap.String("path", target))
			return "", nil
		case ConflictRename:
			renamed, err := freeName(target)
			if err != nil {
				return "", newIOError("rename", target, err)
			}
			e.l.Debug("renaming conflicting file", zap.String("path", target), zap.String("renamed", renamed))
			target = renamed
		default:
			if existing.IsDir() {
				return "", newIOError("overwrite", target, errors.New("is a directory"))
			}
		}
	} else if !os.IsNotExist(err) {
		return "", newIOError("stat", target, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", newIOError("mkdir", filepath.Dir(target), err)
	}

	perm := hdr.FileInfo().Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return "", newIOError("create", target, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", newIOError("write", target, err)
	}
	if err := f.Close(); err != nil {
		return "", newIOError("close", target, err)
	}
	if !hdr.ModTime.IsZero() {
		if err := os.Chtimes(target, hdr.ModTime, hdr.ModTime); err != nil {
			e.l.Debug("failed to set modification time", zap.String("path", target), zap.Error(err))
		}
	}
	return target, nil
}

func targetPath(destDir, name string) (string, error) {
	if name == "" || path.IsAbs(name) || filepath.IsAbs(name) {
		return "", ErrUnsafePath
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrUnsafePath
	}
	return filepath.Join(destDir, filepath.FromSlash(clean)), nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
