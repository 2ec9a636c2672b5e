package archive

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// EntryFunc is called after each entry with the number of finished entries
// and the total.
type EntryFunc func(done, total int)

type (
	Builder struct {
		l *zap.Logger
	}
	BuilderOption func(*Builder)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewBuilder(l *zap.Logger, opts ...BuilderOption) *Builder {
	inst := &Builder{
		l: l,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Build writes a tar archive of inputs to dest and returns the archived entries.
// On failure dest is removed.
func (b *Builder) Build(ctx context.Context, dest string, inputs []string, onEntry EntryFunc) (entries []Entry, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err = Collect(inputs)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(dest)
	if err != nil {
		return nil, newIOError("create", dest, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			if rmErr := os.Remove(dest); rmErr != nil && !os.IsNotExist(rmErr) {
				b.l.Warn("failed to remove incomplete archive", zap.String("path", dest), zap.Error(rmErr))
			}
		}
	}()

	tw := tar.NewWriter(f)
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.writeEntry(tw, dest, entry); err != nil {
			return nil, err
		}
		b.l.Debug("archived", zap.String("name", entry.Name), zap.Int64("size", entry.Size))
		if onEntry != nil {
			onEntry(i+1, len(entries))
		}
	}

	if err := tw.Close(); err != nil {
		return nil, newIOError("write", dest, err)
	}
	if err := f.Close(); err != nil {
		return nil, newIOError("close", dest, err)
	}
	return entries, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (b *Builder) writeEntry(tw *tar.Writer, dest string, entry Entry) error {
	src, err := os.Open(entry.Path)
	if err != nil {
		return newIOError("open", entry.Path, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return newIOError("stat", entry.Path, err)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return newIOError("header", entry.Path, err)
	}
	hdr.Name = entry.Name
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "", ""
	hdr.ModTime = info.ModTime().Truncate(time.Second)
	hdr.AccessTime, hdr.ChangeTime = time.Time{}, time.Time{}
	hdr.Format = tar.FormatPAX

	if err := tw.WriteHeader(hdr); err != nil {
		return newIOError("write", dest, err)
	}
	if _, err := io.CopyN(tw, src, hdr.Size); err != nil {
		if err == io.EOF {
			// file shrank after it was stat'ed
			err = io.ErrUnexpectedEOF
		}
		return newIOError("copy", entry.Path, err)
	}
	return nil
}
