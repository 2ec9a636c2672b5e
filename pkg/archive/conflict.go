package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ConflictPolicy decides what happens when an extracted file already exists.
type ConflictPolicy string

const (
	ConflictOverwrite ConflictPolicy = "overwrite"
	ConflictSkip      ConflictPolicy = "skip"
	ConflictRename    ConflictPolicy = "rename"
)

const maxRenameAttempts = 10000

func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ConflictOverwrite, ConflictSkip, ConflictRename:
		return p, nil
	case "":
		return ConflictRename, nil
	default:
		return "", errors.Errorf("unknown conflict policy: %q (supported: overwrite, skip, rename)", s)
	}
}

// freeName returns the first "name (n).ext" sibling of p that does not exist.
func freeName(p string) (string, error) {
	dir, file := filepath.Split(p)
	ext := filepath.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	for i := 1; i <= maxRenameAttempts; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", errors.Errorf("no free name for %s", p)
}
