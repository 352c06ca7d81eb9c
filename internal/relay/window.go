package relay

import "time"

// WindowSize is the number of inter-arrival intervals kept for averaging.
const WindowSize = 10

// IntervalWindow is a fixed-capacity ring of the most recent inter-arrival
// durations, oldest first. The zero value is empty and ready to use. It holds
// no references, so copying a window yields an independent snapshot.
type IntervalWindow struct {
	buf   [WindowSize]time.Duration
	start int // index of the oldest sample
	n     int
	sum   time.Duration
}

// Push appends d, evicting the oldest sample once the window is full.
// Negative durations are recorded as zero.
func (w *IntervalWindow) Push(d time.Duration) {
	if d < 0 {
		d = 0
	}
	if w.n < WindowSize {
		w.buf[(w.start+w.n)%WindowSize] = d
		w.n++
		w.sum += d
		return
	}
	w.sum += d - w.buf[w.start]
	w.buf[w.start] = d
	w.start = (w.start + 1) % WindowSize
}

// Len returns the number of recorded samples.
func (w *IntervalWindow) Len() int {
	return w.n
}

// Sum returns the total of all recorded samples.
func (w *IntervalWindow) Sum() time.Duration {
	return w.sum
}

// Average returns the mean sample, or 0 when the window is empty.
func (w *IntervalWindow) Average() time.Duration {
	if w.n == 0 {
		return 0
	}
	return w.sum / time.Duration(w.n)
}

// Intervals returns a copy of the samples in arrival order.
func (w *IntervalWindow) Intervals() []time.Duration {
	out := make([]time.Duration, w.n)
	for i := 0; i < w.n; i++ {
		out[i] = w.buf[(w.start+i)%WindowSize]
	}
	return out
}
