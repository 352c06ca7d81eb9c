package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rovercam/internal/relay"
)

type placeholderSink struct {
	mu   sync.Mutex
	last []byte
	n    int
}

func (p *placeholderSink) apply(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = data
	p.n++
}

func (p *placeholderSink) get() ([]byte, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.n
}

func TestWatchPlaceholderReloads(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "offline.gif")
	require.NoError(t, os.WriteFile(file, relay.DefaultPlaceholder, 0644))

	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &placeholderSink{}
	require.NoError(t, WatchPlaceholder(ctx, s, "offline.gif", sink.apply, log))

	// not a GIF: ignored
	require.NoError(t, os.WriteFile(file, []byte("not an image"), 0644))
	time.Sleep(3 * PlaceholderDebounce)
	_, n := sink.get()
	assert.Zero(t, n)

	replacement := append([]byte("GIF89a"), make([]byte, 16)...)
	require.NoError(t, os.WriteFile(file, replacement, 0644))

	assert.Eventually(t, func() bool {
		last, _ := sink.get()
		return string(last) == string(replacement)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatchPlaceholderMissingDir(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	err = WatchPlaceholder(context.Background(), s, "nested/offline.gif", func([]byte) {}, logrus.New())
	assert.Error(t, err)
}
