package models

import "time"

// Frame is a single camera capture admitted by the relay
type Frame struct {
	Data        []byte    // Encoded image bytes, never mutated after admission
	ContentType string    // "image/jpeg" or "image/png"
	ReceivedAt  time.Time // When the relay admitted the frame
	Sequence    uint64    // Admission counter, starts at 1
}

// Size returns the payload length in bytes
func (f *Frame) Size() int {
	return len(f.Data)
}

// CameraState describes the relay as seen by a consumer at a point in time
type CameraState string

const (
	CameraStateEmpty CameraState = "empty" // no frame admitted since start
	CameraStateLive  CameraState = "live"
	CameraStateStale CameraState = "stale" // frame older than the dynamic timeout
)
