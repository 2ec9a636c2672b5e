package codec

import (
	"fmt"
)

type ErrorKind string

const (
	// KindCorrupt marks a stream that is malformed or ends early.
	KindCorrupt ErrorKind = "corrupt"
	// KindIO marks a failure of the underlying reader or writer.
	KindIO ErrorKind = "io"
)

// Error is returned by codecs for every failure except cancellation.
type Error struct {
	Codec Kind
	Op    string
	Kind  ErrorKind
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s stream error: %v", e.Codec, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Corrupt reports whether the error describes a damaged stream.
func (e *Error) Corrupt() bool {
	return e.Kind == KindCorrupt
}

func ioError(codec Kind, op string, err error) error {
	return &Error{Codec: codec, Op: op, Kind: KindIO, Err: err}
}

func corruptError(codec Kind, op string, err error) error {
	return &Error{Codec: codec, Op: op, Kind: KindCorrupt, Err: err}
}
