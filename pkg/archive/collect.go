package archive

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
)

var (
	ErrDuplicateEntry = errors.New("duplicate entry name")
	ErrRootInput      = errors.New("filesystem root cannot be archived")
)

// Entry is a regular file scheduled for an archive.
type Entry struct {
	// Name is the slash separated path inside the archive.
	Name string
	// Path is the source file on disk.
	Path string
	Size int64
}

// Collect resolves inputs into the ordered list of archive entries.
// A file becomes one entry under its base name. A directory contributes every
// regular file beneath it in lexical depth-first order, prefixed with the
// directory's base name. Other file types are not archived. Symlinked inputs
// are followed; links below a directory are not. Two entries with the same
// name are rejected.
func Collect(inputs []string) ([]Entry, error) {
	var entries []Entry
	seen := map[string]string{}
	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			return nil, newIOError("resolve", input, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, newIOError("stat", input, err)
		}

		base := filepath.Base(abs)
		if filepath.Dir(abs) == abs {
			return nil, newIOError("collect", input, ErrRootInput)
		}

		var found []Entry
		switch {
		case info.Mode().IsRegular():
			found = []Entry{{Name: base, Path: abs, Size: info.Size()}}
		case info.IsDir():
			// WalkDir does not descend into a symlinked root
			root, err := filepath.EvalSymlinks(abs)
			if err != nil {
				return nil, newIOError("resolve", input, err)
			}
			if found, err = collectDir(root, base); err != nil {
				return nil, err
			}
		}

		for _, entry := range found {
			if prev, ok := seen[entry.Name]; ok {
				return nil, newIOError("collect", entry.Path, errors.Wrapf(ErrDuplicateEntry, "%q also provided by %s", entry.Name, prev))
			}
			seen[entry.Name] = entry.Path
		}
		entries = append(entries, found...)
	}
	return entries, nil
}

func collectDir(root, base string) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return newIOError("walk", p, err)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return newIOError("stat", p, err)
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return newIOError("resolve", p, err)
		}
		entries = append(entries, Entry{
			Name: path.Join(base, filepath.ToSlash(rel)),
			Path: p,
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
