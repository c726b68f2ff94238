// infrastructure/local_storage.go
package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vitovidale/video-catalog-service/domain"
)

const metaSuffix = ".meta.json"

type resourceMeta struct {
	Checksum    string `json:"checksum"`
	ContentType string `json:"content_type"`
	Name        string `json:"name"`
}

// LocalStorage keeps blobs under a base directory, with the resource metadata
// in a sidecar file next to each blob.
type LocalStorage struct {
	baseDir string
}

func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir}
}

func (s *LocalStorage) EnsureDirectories() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	return nil
}

func (s *LocalStorage) Store(ctx context.Context, path string, r domain.Resource) error {
	full, err := s.resolve(path)
	if err != nil {
		return &domain.StorageError{Op: "store", Path: path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return &domain.StorageError{Op: "store", Path: path, Err: err}
	}
	if err := os.WriteFile(full, r.Content, 0644); err != nil {
		return &domain.StorageError{Op: "store", Path: path, Err: err}
	}

	meta, err := json.Marshal(resourceMeta{Checksum: r.Checksum, ContentType: r.ContentType, Name: r.Name})
	if err != nil {
		return &domain.StorageError{Op: "store", Path: path, Err: err}
	}
	if err := os.WriteFile(full+metaSuffix, meta, 0644); err != nil {
		return &domain.StorageError{Op: "store", Path: path, Err: err}
	}
	return nil
}

func (s *LocalStorage) Get(ctx context.Context, path string) (*domain.Resource, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Path: path, Err: err}
	}
	content, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrResourceNotFound)
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Path: path, Err: err}
	}

	// A blob without a sidecar is served with a recomputed checksum; a
	// sidecar that cannot be read or parsed is a storage failure.
	var meta resourceMeta
	raw, err := os.ReadFile(full + metaSuffix)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, &domain.StorageError{Op: "get", Path: path, Err: err}
	default:
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, &domain.StorageError{Op: "get", Path: path, Err: fmt.Errorf("corrupt metadata: %w", err)}
		}
	}
	if meta.Checksum == "" {
		meta.Checksum = domain.Checksum(content)
	}
	return &domain.Resource{
		Checksum:    meta.Checksum,
		Content:     content,
		ContentType: meta.ContentType,
		Name:        meta.Name,
	}, nil
}

// List returns slash separated paths, relative to the base directory, that
// start with prefix.
func (s *LocalStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Path: prefix, Err: err}
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *LocalStorage) DeleteAll(ctx context.Context, paths []string) error {
	for _, path := range paths {
		full, err := s.resolve(path)
		if err != nil {
			return &domain.StorageError{Op: "delete", Path: path, Err: err}
		}
		for _, f := range []string{full, full + metaSuffix} {
			if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return &domain.StorageError{Op: "delete", Path: path, Err: err}
			}
		}
	}
	return nil
}

func (s *LocalStorage) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid path %q", path)
	}
	return filepath.Join(s.baseDir, clean), nil
}

var _ domain.StorageService = (*LocalStorage)(nil)
