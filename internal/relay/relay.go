package relay

import (
	"mime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"rovercam/pkg/models"
)

// DefaultMaxFrameBytes caps a single uploaded frame.
const DefaultMaxFrameBytes int64 = 5 * 1024 * 1024

// Snapshot is an immutable view of the relay state. A new snapshot is built
// for every admitted frame and published atomically, so a reader always sees
// a frame together with its own timestamp and interval history.
type Snapshot struct {
	Frame     *models.Frame // nil until the first frame is admitted
	LastFrame time.Time
	Window    IntervalWindow
}

// View is the result of a consumer lookup.
type View struct {
	Frame   *models.Frame // nil when Live is false
	Live    bool
	Age     time.Duration // zero when no frame exists
	Timeout time.Duration
	State   models.CameraState
}

// IngestResult describes an admitted frame.
type IngestResult struct {
	Frame          *models.Frame
	Interval       time.Duration // zero for the first frame
	FPS            float64
	DynamicTimeout time.Duration
}

// Relay owns the single-slot frame buffer and the interval history.
type Relay struct {
	mu    sync.Mutex // serializes writers
	state atomic.Pointer[Snapshot]

	rejected atomic.Uint64

	// Config
	now           func() time.Time
	policy        TimeoutPolicy
	maxFrameBytes int64
}

// Option configures a Relay.
type Option func(*Relay)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		r.now = now
	}
}

// WithTimeoutPolicy overrides the default staleness policy.
func WithTimeoutPolicy(p TimeoutPolicy) Option {
	return func(r *Relay) {
		r.policy = p
	}
}

// WithMaxFrameBytes overrides the upload size cap.
func WithMaxFrameBytes(n int64) Option {
	return func(r *Relay) {
		r.maxFrameBytes = n
	}
}

// New creates a relay in the empty state.
func New(opts ...Option) *Relay {
	r := &Relay{
		now:           time.Now,
		policy:        DefaultTimeoutPolicy(),
		maxFrameBytes: DefaultMaxFrameBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.state.Store(&Snapshot{})
	return r
}

// MaxFrameBytes returns the configured upload cap.
func (r *Relay) MaxFrameBytes() int64 {
	return r.maxFrameBytes
}

// Snapshot returns the current state. The returned value must not be modified.
func (r *Relay) Snapshot() *Snapshot {
	return r.state.Load()
}

// RecordRejected counts an upload turned away before it reached the relay,
// such as an unauthorized or malformed request.
func (r *Relay) RecordRejected() {
	r.rejected.Add(1)
}

// Validate checks a declared content type and size without touching state.
// Rejections are counted.
func (r *Relay) Validate(contentType string, size int64) error {
	if _, err := r.validate(contentType, size); err != nil {
		r.RecordRejected()
		return err
	}
	return nil
}

func (r *Relay) validate(contentType string, size int64) (string, error) {
	if size <= 0 {
		return "", &MissingDataError{}
	}
	ct, ok := NormalizeContentType(contentType)
	if !ok {
		return "", &ValidationError{Reason: "Only .jpg, .jpeg, and .png formats are allowed"}
	}
	if size > r.maxFrameBytes {
		return "", &ValidationError{Reason: "File too large"}
	}
	return ct, nil
}

// Ingest admits data as the new current frame. The frame keeps its normalized
// content type (image/jpeg or image/png) and is served with it. The relay
// takes ownership of data; callers must not modify it afterwards.
func (r *Relay) Ingest(contentType string, data []byte) (*IngestResult, error) {
	ct, err := r.validate(contentType, int64(len(data)))
	if err != nil {
		r.RecordRejected()
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.state.Load()
	now := r.now()

	next := &Snapshot{Window: prev.Window}
	var interval time.Duration
	var seq uint64 = 1
	if prev.Frame != nil {
		interval = now.Sub(prev.LastFrame)
		if interval < 0 {
			// Wall clock stepped back; keep the timestamp non-decreasing.
			interval = 0
			now = prev.LastFrame
		}
		next.Window.Push(interval)
		seq = prev.Frame.Sequence + 1
	}
	next.Frame = &models.Frame{
		Data:        data,
		ContentType: ct,
		ReceivedAt:  now,
		Sequence:    seq,
	}
	next.LastFrame = now

	r.state.Store(next)

	return &IngestResult{
		Frame:          next.Frame,
		Interval:       interval,
		FPS:            FPS(&next.Window),
		DynamicTimeout: r.policy.Timeout(&next.Window),
	}, nil
}

// Lookup decides whether the current frame is still live. It never mutates
// state and never blocks on writers.
func (r *Relay) Lookup() View {
	return r.view(r.state.Load())
}

func (r *Relay) view(snap *Snapshot) View {
	v := View{
		Timeout: r.policy.Timeout(&snap.Window),
		State:   models.CameraStateEmpty,
	}
	if snap.Frame == nil {
		return v
	}

	v.Age = r.now().Sub(snap.LastFrame)
	if v.Age < 0 {
		v.Age = 0
	}
	if v.Age > v.Timeout {
		v.State = models.CameraStateStale
		return v
	}
	v.Frame = snap.Frame
	v.Live = true
	v.State = models.CameraStateLive
	return v
}

// Status reports diagnostics for the current state.
func (r *Relay) Status() models.CameraStatus {
	snap := r.state.Load()
	view := r.view(snap)

	status := models.CameraStatus{
		State:          view.State,
		FPS:            FPS(&snap.Window),
		DynamicTimeout: view.Timeout.Milliseconds(),
		Intervals:      snap.Window.Len(),
		FramesRejected: r.rejected.Load(),
	}
	if snap.Frame != nil {
		status.HasFrame = true
		status.FrameSize = snap.Frame.Size()
		status.ContentType = snap.Frame.ContentType
		status.FrameAgeMs = view.Age.Milliseconds()
		status.FramesReceived = snap.Frame.Sequence
		status.LastFrameTime = snap.LastFrame.UTC().Format(time.RFC3339Nano)
	}
	return status
}

// NormalizeContentType maps an accepted MIME type to its canonical form.
func NormalizeContentType(contentType string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(mediaType) {
	case "image/jpeg", "image/jpg":
		return "image/jpeg", true
	case "image/png":
		return "image/png", true
	}
	return "", false
}
