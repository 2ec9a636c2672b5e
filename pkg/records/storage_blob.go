package records

import (
	"context"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// Bucket drivers selectable by URL scheme
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// SupportedBlobSchemes lists the bucket URL schemes with a registered driver.
var SupportedBlobSchemes = []string{"gs://", "s3://", "azblob://", "file://", "mem://"}

// BlobStorage keeps catalog documents in a gocloud.dev bucket.
type BlobStorage struct {
	bucket *blob.Bucket
	prefix string
}

// NewBlobStorage opens bucketURL, e.g. "gs://my-bucket" or "file:///var/lib/discstorage".
// All keys are stored below prefix.
func NewBlobStorage(ctx context.Context, bucketURL, prefix string) (*BlobStorage, error) {
	if !IsSupportedBlobURL(bucketURL) {
		return nil, errors.Errorf("unsupported blob storage URL scheme in %q; supported schemes: %s",
			bucketURL, strings.Join(SupportedBlobSchemes, ", "))
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bucket")
	}
	return NewBlobStorageFromBucket(bucket, prefix), nil
}

// NewBlobStorageFromBucket wraps an already opened bucket.
func NewBlobStorageFromBucket(bucket *blob.Bucket, prefix string) *BlobStorage {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &BlobStorage{
		bucket: bucket,
		prefix: prefix,
	}
}

// IsSupportedBlobURL checks the scheme of a bucket URL.
func IsSupportedBlobURL(bucketURL string) bool {
	for _, scheme := range SupportedBlobSchemes {
		if strings.HasPrefix(bucketURL, scheme) {
			return true
		}
	}
	return false
}

// BlobProvider returns a human readable provider name for a bucket URL.
func BlobProvider(bucketURL string) string {
	switch {
	case strings.HasPrefix(bucketURL, "gs://"):
		return "Google Cloud Storage"
	case strings.HasPrefix(bucketURL, "s3://"):
		return "AWS S3"
	case strings.HasPrefix(bucketURL, "azblob://"):
		return "Azure Blob Storage"
	case strings.HasPrefix(bucketURL, "file://"):
		return "Local directory"
	case strings.HasPrefix(bucketURL, "mem://"):
		return "In-memory bucket"
	default:
		return "unknown"
	}
}

func (b *BlobStorage) fullKey(key string) string {
	return b.prefix + key
}

func (b *BlobStorage) Write(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return b.bucket.WriteAll(ctx, b.fullKey(key), data, &blob.WriterOptions{
		ContentType: "application/json",
	})
}

func (b *BlobStorage) Read(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := b.bucket.ReadAll(ctx, b.fullKey(key))
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, os.ErrNotExist
	} else if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *BlobStorage) List(ctx context.Context, prefix string) ([]string, error) {
	iter := b.bucket.List(&blob.ListOptions{
		Prefix:    b.fullKey(prefix),
		Delimiter: "/",
	})

	var keys []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		if obj.IsDir {
			continue
		}
		keys = append(keys, strings.TrimPrefix(obj.Key, b.prefix))
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *BlobStorage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := b.bucket.Delete(ctx, b.fullKey(key))
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return err
	}
	return nil
}

func (b *BlobStorage) Close() error {
	return b.bucket.Close()
}
