package archive

import (
	"fmt"
)

// IOError reports a filesystem failure while building or extracting an archive.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("archive %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func newIOError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}
