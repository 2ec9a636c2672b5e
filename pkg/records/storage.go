package records

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Storage persists catalog documents by key.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Write stores data under key, replacing any previous value.
	Write(ctx context.Context, key string, data []byte) error

	// Read returns the data for key, or os.ErrNotExist.
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns the keys starting with prefix in ascending order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

var ErrInvalidKey = errors.New("invalid storage key")

// validateKey rejects keys that would leave a flat key space.
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	return nil
}
