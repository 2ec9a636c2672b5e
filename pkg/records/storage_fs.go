package records

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// FilesystemStorage keeps one file per key in a single directory.
type FilesystemStorage struct {
	baseDir string
	mu      sync.RWMutex
}

func NewFilesystemStorage(baseDir string) (*FilesystemStorage, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, errors.Wrap(err, "failed to create records directory")
	}
	return &FilesystemStorage{baseDir: baseDir}, nil
}

// Write replaces the file through a rename so readers never see partial data.
func (f *FilesystemStorage) Write(_ context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.baseDir, ".tmp-"+key+"-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(f.baseDir, key)); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (f *FilesystemStorage) Read(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	return os.ReadFile(filepath.Join(f.baseDir, key))
}

func (f *FilesystemStorage) List(_ context.Context, prefix string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.baseDir)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() && strings.HasPrefix(name, prefix) && !strings.HasPrefix(name, ".tmp-") {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FilesystemStorage) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(filepath.Join(f.baseDir, key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *FilesystemStorage) Close() error {
	return nil
}
