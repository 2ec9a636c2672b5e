package records

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/foomo/discstorage/pkg/metrics"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	RecordKeyPrefix = "record-"
	RecordKeySuffix = ".json"
)

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary

	ErrDuplicateName = errors.New("record name already exists")
	ErrNotFound      = errors.New("record not found")
	ErrEmptyName     = errors.New("record name must not be empty")
)

type (
	// Catalog keeps one record per unique name.
	Catalog struct {
		l               *zap.Logger
		storage         Storage
		dir             string // used for the default filesystem storage
		listConcurrency int
		mu              sync.RWMutex
	}
	CatalogOption func(*Catalog)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func CatalogWithStorage(v Storage) CatalogOption {
	return func(o *Catalog) {
		o.storage = v
	}
}

func CatalogWithDir(v string) CatalogOption {
	return func(o *Catalog) {
		o.dir = v
	}
}

func CatalogWithListConcurrency(v int) CatalogOption {
	return func(o *Catalog) {
		o.listConcurrency = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewCatalog(l *zap.Logger, opts ...CatalogOption) (*Catalog, error) {
	inst := &Catalog{
		l:               l,
		listConcurrency: 8,
	}

	for _, opt := range opts {
		opt(inst)
	}

	if inst.storage == nil {
		if inst.dir == "" {
			dir, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			inst.dir = dir
		}
		storage, err := NewFilesystemStorage(inst.dir)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create default filesystem storage")
		}
		inst.storage = storage
	}

	return inst, nil
}

// DefaultDir returns the per-user directory for the filesystem catalog.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve user config dir")
	}
	return filepath.Join(dir, "discstorage", "records"), nil
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Add persists rec. A record with the same name is never replaced.
func (c *Catalog) Add(ctx context.Context, rec Record) error {
	if rec.Name == "" {
		return ErrEmptyName
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(rec.Name)
	if _, err := c.storage.Read(ctx, key); err == nil {
		return errors.Wrapf(ErrDuplicateName, "%q", rec.Name)
	} else if !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to check for existing record")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to encode record")
	}
	if err := c.storage.Write(ctx, key, data); err != nil {
		metrics.RecordsPersistFailedCounter.WithLabelValues().Inc()
		return errors.Wrap(err, "failed to write record")
	}

	c.l.Debug("record added", zap.String("name", rec.Name), zap.String("key", key))
	return nil
}

func (c *Catalog) Get(ctx context.Context, name string) (Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.read(ctx, Key(name), name)
}

// List returns all records ordered by name.
func (c *Catalog) List(ctx context.Context) ([]Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys, err := c.storage.List(ctx, RecordKeyPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list records")
	}

	var filtered []string
	for _, key := range keys {
		if strings.HasSuffix(key, RecordKeySuffix) {
			filtered = append(filtered, key)
		}
	}

	ret := make([]Record, len(filtered))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.listConcurrency)
	for i, key := range filtered {
		g.Go(func() error {
			rec, err := c.read(gCtx, key, key)
			if err != nil {
				return err
			}
			ret[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Name < ret[j].Name
	})
	return ret, nil
}

// Delete removes the record for name. Missing records are ignored.
func (c *Catalog) Delete(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.storage.Delete(ctx, Key(name)); err != nil {
		return errors.Wrapf(err, "failed to delete record %q", name)
	}
	c.l.Debug("record deleted", zap.String("name", name))
	return nil
}

func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.storage != nil {
		return c.storage.Close()
	}
	return nil
}

// Key returns the storage key of the record called name.
func Key(name string) string {
	return RecordKeyPrefix + url.PathEscape(name) + RecordKeySuffix
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (c *Catalog) read(ctx context.Context, key, name string) (Record, error) {
	var rec Record
	data, err := c.storage.Read(ctx, key)
	if os.IsNotExist(err) {
		return rec, errors.Wrapf(ErrNotFound, "%q", name)
	} else if err != nil {
		return rec, errors.Wrapf(err, "failed to read record %q", name)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, errors.Wrapf(err, "failed to decode record %q", name)
	}
	return rec, nil
}
