package framehub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rovercam/pkg/models"
)

func frame(seq uint64) *models.Frame {
	return &models.Frame{Data: []byte{byte(seq)}, ContentType: "image/jpeg", Sequence: seq}
}

func TestPublishDelivers(t *testing.T) {
	h := New()
	a, cleanupA := h.Subscribe(2)
	b, cleanupB := h.Subscribe(2)
	defer cleanupA()
	defer cleanupB()

	assert.Equal(t, 2, h.SubscriberCount())
	assert.Equal(t, 0, h.Publish(frame(1)))

	assert.Equal(t, uint64(1), (<-a).Sequence)
	assert.Equal(t, uint64(1), (<-b).Sequence)
}

func TestSlowSubscriberKeepsLatest(t *testing.T) {
	h := New()
	ch, cleanup := h.Subscribe(2)
	defer cleanup()

	h.Publish(frame(1))
	h.Publish(frame(2))
	assert.Equal(t, 1, h.Publish(frame(3)))
	assert.Equal(t, 1, h.Publish(frame(4)))
	assert.Equal(t, uint64(2), h.Dropped())

	assert.Equal(t, uint64(3), (<-ch).Sequence)
	assert.Equal(t, uint64(4), (<-ch).Sequence)
}

func TestCleanupClosesChannel(t *testing.T) {
	h := New()
	ch, cleanup := h.Subscribe(1)

	cleanup()
	cleanup()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.SubscriberCount())
	assert.Equal(t, 0, h.Publish(frame(1)))
}

func TestCloseDisconnectsAll(t *testing.T) {
	h := New()
	ch, cleanup := h.Subscribe(1)
	defer cleanup()

	h.Close()
	_, ok := <-ch
	assert.False(t, ok)

	late, _ := h.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok)
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	h := New()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, cleanup := h.Subscribe(1)
			defer cleanup()
			for j := 0; j < 50; j++ {
				select {
				case <-ch:
				default:
				}
			}
		}()
	}
	for i := uint64(1); i <= 500; i++ {
		h.Publish(frame(i))
	}
	wg.Wait()

	require.Equal(t, 0, h.SubscriberCount())
}
