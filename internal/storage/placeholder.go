package storage

import (
	"context"
	"fmt"

	"rovercam/internal/relay"
)

// LoadPlaceholder reads a replacement placeholder image from s. An empty
// path selects the built-in transparent GIF.
func LoadPlaceholder(ctx context.Context, s Storage, path string) ([]byte, error) {
	if path == "" {
		return relay.DefaultPlaceholder, nil
	}

	ok, err := s.Exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("placeholder %s not found", path)
	}

	data, err := s.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := relay.ValidatePlaceholder(data); err != nil {
		return nil, fmt.Errorf("placeholder %s: %w", path, err)
	}
	return data, nil
}
