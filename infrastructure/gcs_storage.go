// infrastructure/gcs_storage.go
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/vitovidale/video-catalog-service/domain"
)

const (
	metaChecksum = "checksum"
	metaName     = "name"
)

// GCSStorage stores blobs as objects of a single bucket. The checksum and the
// original file name travel as object metadata.
type GCSStorage struct {
	client *storage.Client
	bucket string
}

func NewGCSStorage(ctx context.Context, bucket string) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStorage{client: client, bucket: bucket}, nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) Store(ctx context.Context, path string, r domain.Resource) error {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = r.ContentType
	w.Metadata = map[string]string{
		metaChecksum: r.Checksum,
		metaName:     r.Name,
	}
	if _, err := w.Write(r.Content); err != nil {
		_ = w.Close()
		return &domain.StorageError{Op: "store", Path: path, Err: err}
	}
	if err := w.Close(); err != nil {
		return &domain.StorageError{Op: "store", Path: path, Err: err}
	}
	return nil
}

func (s *GCSStorage) Get(ctx context.Context, path string) (*domain.Resource, error) {
	obj := s.client.Bucket(s.bucket).Object(path)
	attrs, err := obj.Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gs://%s/%s: %w", s.bucket, path, domain.ErrResourceNotFound)
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Path: path, Err: err}
	}

	r, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gs://%s/%s: %w", s.bucket, path, domain.ErrResourceNotFound)
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Path: path, Err: err}
	}
	defer func() { _ = r.Close() }()

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Path: path, Err: err}
	}

	checksum := attrs.Metadata[metaChecksum]
	if checksum == "" {
		checksum = domain.Checksum(content)
	}
	return &domain.Resource{
		Checksum:    checksum,
		Content:     content,
		ContentType: attrs.ContentType,
		Name:        attrs.Metadata[metaName],
	}, nil
}

func (s *GCSStorage) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var paths []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, &domain.StorageError{Op: "list", Path: prefix, Err: err}
		}
		paths = append(paths, attrs.Name)
	}
	return paths, nil
}

func (s *GCSStorage) DeleteAll(ctx context.Context, paths []string) error {
	bkt := s.client.Bucket(s.bucket)
	for _, path := range paths {
		err := bkt.Object(path).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return &domain.StorageError{Op: "delete", Path: path, Err: err}
		}
	}
	return nil
}

var _ domain.StorageService = (*GCSStorage)(nil)
