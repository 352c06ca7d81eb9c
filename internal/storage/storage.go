package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Storage is a read-only source of static assets such as the placeholder image
type Storage interface {
	// Read reads the object at path
	Read(ctx context.Context, path string) ([]byte, error)

	// Exists checks if an object exists
	Exists(ctx context.Context, path string) (bool, error)
}

// LocalStorage implements Storage using local filesystem
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates a new local storage instance rooted at baseDir
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", baseDir)
	}

	return &LocalStorage{
		baseDir: baseDir,
	}, nil
}

// Read reads data from a file
func (s *LocalStorage) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(s.fullPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}

// Exists checks if a file exists
func (s *LocalStorage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(s.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}

	return true, nil
}

// fullPath resolves path under baseDir; rooting it first keeps ".." from escaping
func (s *LocalStorage) fullPath(path string) string {
	return filepath.Join(s.baseDir, filepath.Clean("/"+path))
}
