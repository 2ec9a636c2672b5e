package codec

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
)

type Kind string

const (
	// KindHighRatio trades speed for a smaller artifact (xz).
	KindHighRatio Kind = "highratio"
	// KindFast trades ratio for throughput (zstd).
	KindFast Kind = "fast"
)

var (
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// MagicLen is the number of header bytes Detect needs.
const MagicLen = 6

func (k Kind) String() string {
	return string(k)
}

// Extension returns the conventional file suffix for artifacts of this kind.
func (k Kind) Extension() string {
	switch k {
	case KindHighRatio:
		return ".tar.xz"
	case KindFast:
		return ".tar.zst"
	default:
		return ".tar"
	}
}

// ParseKind accepts the canonical names as well as the algorithm names.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "highratio", "high-ratio", "lzma", "xz":
		return KindHighRatio, nil
	case "fast", "zstd", "zstandard":
		return KindFast, nil
	default:
		return "", errors.Errorf("unknown codec kind: %q (supported: highratio, fast)", s)
	}
}

// Detect identifies the codec from the leading bytes of an artifact.
func Detect(header []byte) (Kind, bool) {
	switch {
	case bytes.HasPrefix(header, xzMagic):
		return KindHighRatio, true
	case bytes.HasPrefix(header, zstdMagic):
		return KindFast, true
	default:
		return "", false
	}
}
