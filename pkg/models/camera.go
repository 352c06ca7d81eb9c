package models

// UploadResponse is returned for an admitted frame
type UploadResponse struct {
	Status         string  `json:"status"`
	Message        string  `json:"message"`
	FrameSize      int     `json:"frameSize"`
	FPS            float64 `json:"fps"`
	DynamicTimeout int64   `json:"dynamicTimeout"` // milliseconds
}

// ErrorResponse is the body of every failed camera or control request
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CameraStatus is the diagnostic view of the relay
type CameraStatus struct {
	State          CameraState `json:"state"`
	HasFrame       bool        `json:"hasFrame"`
	FrameSize      int         `json:"frameSize"`
	ContentType    string      `json:"contentType,omitempty"`
	FrameAgeMs     int64       `json:"frameAgeMs"`
	FPS            float64     `json:"fps"`
	DynamicTimeout int64       `json:"dynamicTimeout"` // milliseconds
	Intervals      int         `json:"intervals"`      // samples in the interval window
	FramesReceived uint64      `json:"framesReceived"`
	FramesRejected uint64      `json:"framesRejected"`
	LastFrameTime  string      `json:"lastFrameTime,omitempty"` // RFC3339
	Viewers        int         `json:"viewers"`                 // websocket subscribers
}
