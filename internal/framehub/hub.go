package framehub

import (
	"sync"
	"sync/atomic"

	"rovercam/pkg/models"
)

// Hub fans admitted frames out to push subscribers. Delivery is latest-wins:
// a subscriber that falls behind loses its oldest queued frame, never the
// producer's time.
type Hub struct {
	subscribers map[uint64]chan *models.Frame
	nextID      uint64
	closed      bool
	mu          sync.RWMutex

	dropped atomic.Uint64
}

// New creates an empty hub
func New() *Hub {
	return &Hub{
		subscribers: make(map[uint64]chan *models.Frame),
	}
}

// Publish hands frame to every subscriber without blocking and returns the
// number of queued frames that had to be discarded to make room.
func (h *Hub) Publish(frame *models.Frame) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for _, ch := range h.subscribers {
		select {
		case ch <- frame:
			continue
		default:
		}

		// Queue is full: discard the oldest frame and retry once
		select {
		case <-ch:
			dropped++
		default:
		}
		select {
		case ch <- frame:
		default:
			dropped++
		}
	}

	if dropped > 0 {
		h.dropped.Add(uint64(dropped))
	}
	return dropped
}

// Subscribe registers a subscriber with a queue of bufferSize frames.
// The returned cleanup function unsubscribes and closes the channel; it is
// safe to call more than once.
func (h *Hub) Subscribe(bufferSize int) (<-chan *models.Frame, func()) {
	if bufferSize < 1 {
		bufferSize = 1
	}
	ch := make(chan *models.Frame, bufferSize)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.nextID++
	id := h.nextID
	h.subscribers[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.unsubscribe(id) })
	}
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Close disconnects every subscriber; later subscriptions get a closed channel
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
	h.closed = true
}

// SubscriberCount returns the number of active subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped returns the total number of frames discarded for slow subscribers
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
