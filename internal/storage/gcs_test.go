package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	gcs "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rovercam/internal/relay"
)

func TestGCSFullPath(t *testing.T) {
	tests := []struct {
		baseDir string
		name    string
		want    string
	}{
		{"", "offline.gif", "offline.gif"},
		{"", "/offline.gif", "offline.gif"},
		{"assets", "offline.gif", "assets/offline.gif"},
		{"assets/", "/img/offline.gif", "assets/img/offline.gif"},
	}
	for _, tt := range tests {
		s := &GCSStorage{baseDir: tt.baseDir}
		assert.Equal(t, tt.want, s.fullPath(tt.name), "%q + %q", tt.baseDir, tt.name)
	}
}

func TestGCSObjectExists(t *testing.T) {
	ok, err := objectExists(nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = objectExists(fmt.Errorf("attrs: %w", gcs.ErrObjectNotExist))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = objectExists(errors.New("permission denied"))
	assert.Error(t, err)
}

// objectStore behaves like GCSStorage over an in-memory bucket
type objectStore struct {
	objects map[string][]byte
	attrErr error
}

func (s *objectStore) Read(ctx context.Context, path string) ([]byte, error) {
	data, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("failed to read from GCS: %w", gcs.ErrObjectNotExist)
	}
	return data, nil
}

func (s *objectStore) Exists(ctx context.Context, path string) (bool, error) {
	if s.attrErr != nil {
		return objectExists(s.attrErr)
	}
	if _, ok := s.objects[path]; !ok {
		return objectExists(gcs.ErrObjectNotExist)
	}
	return objectExists(nil)
}

func TestLoadPlaceholderFromObjectStore(t *testing.T) {
	ctx := context.Background()
	s := &objectStore{objects: map[string][]byte{
		"offline.gif": relay.DefaultPlaceholder,
		"photo.jpg":   {0xff, 0xd8, 0xff, 0xe0},
	}}

	data, err := LoadPlaceholder(ctx, s, "offline.gif")
	require.NoError(t, err)
	assert.Equal(t, relay.DefaultPlaceholder, data)

	_, err = LoadPlaceholder(ctx, s, "missing.gif")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = LoadPlaceholder(ctx, s, "photo.jpg")
	assert.Error(t, err)

	s.attrErr = errors.New("permission denied")
	_, err = LoadPlaceholder(ctx, s, "offline.gif")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}
