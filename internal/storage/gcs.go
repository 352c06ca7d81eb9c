package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSStorage implements Storage using Google Cloud Storage
type GCSStorage struct {
	client     *storage.Client
	bucketName string
	baseDir    string
}

// NewGCSStorage creates a new GCS storage instance
// bucketName: The GCS bucket name
// baseDir: Base directory/prefix within the bucket (e.g., "assets")
func NewGCSStorage(ctx context.Context, bucketName, baseDir string) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	// Verify bucket exists
	bucket := client.Bucket(bucketName)
	if _, err := bucket.Attrs(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to access bucket %s: %w", bucketName, err)
	}

	return &GCSStorage{
		client:     client,
		bucketName: bucketName,
		baseDir:    baseDir,
	}, nil
}

// Read reads an object from GCS
func (s *GCSStorage) Read(ctx context.Context, path string) ([]byte, error) {
	obj := s.client.Bucket(s.bucketName).Object(s.fullPath(path))
	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read from GCS: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return data, nil
}

// Exists checks if an object exists in GCS
func (s *GCSStorage) Exists(ctx context.Context, path string) (bool, error) {
	obj := s.client.Bucket(s.bucketName).Object(s.fullPath(path))
	_, err := obj.Attrs(ctx)
	return objectExists(err)
}

// objectExists interprets the error of an Attrs lookup
func objectExists(err error) (bool, error) {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check GCS object: %w", err)
	}
	return true, nil
}

// Close closes the GCS client
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

// fullPath maps path to an object name under baseDir
func (s *GCSStorage) fullPath(name string) string {
	name = strings.TrimLeft(name, "/")
	if s.baseDir == "" {
		return name
	}
	return strings.TrimRight(s.baseDir, "/") + "/" + name
}
