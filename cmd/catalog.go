package cmd

import (
	"context"

	"github.com/foomo/discstorage/pkg/records"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// createCatalog opens the record catalog on the configured storage backend
func createCatalog(ctx context.Context, v *viper.Viper, l *zap.Logger) (*records.Catalog, error) {
	storageType := recordsTypeFlag(v)
	bucket := recordsBucketFlag(v)
	prefix := recordsPrefixFlag(v)

	if storageType != "blob" && (bucket != "" || prefix != "") {
		l.Warn("records bucket flags are set but records-type is not 'blob'; blob config will be ignored",
			zap.String("records-type", storageType),
			zap.String("records-bucket", bucket),
			zap.String("records-prefix", prefix),
		)
	}

	var storage records.Storage
	switch storageType {
	case "blob":
		if bucket == "" {
			return nil, errors.New("records bucket URL is required when records-type is 'blob'")
		}
		l.Debug("using blob record storage",
			zap.String("bucket", bucket),
			zap.String("prefix", prefix),
			zap.String("provider", records.BlobProvider(bucket)),
		)
		s, err := records.NewBlobStorage(ctx, bucket, prefix)
		if err != nil {
			return nil, err
		}
		storage = s
	case "filesystem", "":
		dir := recordsDirFlag(v)
		if dir == "" {
			var err error
			if dir, err = records.DefaultDir(); err != nil {
				return nil, err
			}
		}
		l.Debug("using filesystem record storage", zap.String("dir", dir))
		s, err := records.NewFilesystemStorage(dir)
		if err != nil {
			return nil, err
		}
		storage = s
	default:
		return nil, errors.Errorf("unknown records type: %s (supported: filesystem, blob)", storageType)
	}

	return records.NewCatalog(l.Named("records"), records.CatalogWithStorage(storage))
}
