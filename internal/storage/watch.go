package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// PlaceholderDebounce collapses bursts of writes to the placeholder file
const PlaceholderDebounce = 100 * time.Millisecond

// WatchPlaceholder reloads the placeholder at path whenever the file changes
// and hands every valid replacement to apply. Invalid replacements are logged
// and the previous image stays in use. The watcher stops when ctx is done.
func WatchPlaceholder(ctx context.Context, s *LocalStorage, path string, apply func([]byte), log logrus.FieldLogger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	target := s.fullPath(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	log = log.WithField("path", path)
	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		var fire <-chan time.Time
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if debounce == nil {
					debounce = time.NewTimer(PlaceholderDebounce)
				} else {
					debounce.Reset(PlaceholderDebounce)
				}
				fire = debounce.C

			case <-fire:
				fire = nil
				data, err := LoadPlaceholder(ctx, s, path)
				if err != nil {
					log.WithError(err).Warn("Placeholder reload rejected")
					continue
				}
				apply(data)
				log.WithField("size", len(data)).Info("Placeholder reloaded")

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("Placeholder watcher error")
			}
		}
	}()
	return nil
}
