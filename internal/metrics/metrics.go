package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ingest metrics
	FramesReceived prometheus.Counter
	FramesRejected *prometheus.CounterVec
	FrameSize      prometheus.Histogram
	FrameInterval  prometheus.Histogram
	ProducerFPS    prometheus.Gauge
	DynamicTimeout prometheus.Gauge

	// Distribution metrics
	StreamResponses *prometheus.CounterVec
	FrameAge        prometheus.Histogram

	// Viewer metrics
	ActiveViewers  prometheus.Gauge
	ViewerSessions prometheus.Counter
	FramesDropped  prometheus.Counter

	// Control metrics
	Commands *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates all metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	m := &Metrics{
		// Ingest metrics
		FramesReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "rovercam_frames_received_total",
			Help: "Total number of camera frames admitted",
		}),
		FramesRejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rovercam_frames_rejected_total",
				Help: "Total number of camera uploads rejected",
			},
			[]string{"reason"}, // reason: invalid, missing, unauthorized, internal
		),
		FrameSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rovercam_frame_size_bytes",
			Help:    "Size of admitted frames in bytes",
			Buckets: prometheus.ExponentialBuckets(4096, 2, 11), // 4KB to ~4MB
		}),
		FrameInterval: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rovercam_frame_interval_seconds",
			Help:    "Time between consecutive admitted frames",
			Buckets: []float64{0.033, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10},
		}),
		ProducerFPS: f.NewGauge(prometheus.GaugeOpts{
			Name: "rovercam_producer_fps",
			Help: "Producer frame rate estimated from the interval window",
		}),
		DynamicTimeout: f.NewGauge(prometheus.GaugeOpts{
			Name: "rovercam_dynamic_timeout_seconds",
			Help: "Current staleness threshold",
		}),

		// Distribution metrics
		StreamResponses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rovercam_stream_responses_total",
				Help: "Total number of stream responses",
			},
			[]string{"kind"}, // kind: live or placeholder
		),
		FrameAge: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rovercam_served_frame_age_seconds",
			Help:    "Age of live frames when served",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		// Viewer metrics
		ActiveViewers: f.NewGauge(prometheus.GaugeOpts{
			Name: "rovercam_active_viewers",
			Help: "Number of currently connected websocket viewers",
		}),
		ViewerSessions: f.NewCounter(prometheus.CounterOpts{
			Name: "rovercam_viewer_sessions_total",
			Help: "Total number of websocket viewer sessions",
		}),
		FramesDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "rovercam_frames_dropped_total",
			Help: "Frames replaced in a slow viewer's queue before delivery",
		}),

		// Control metrics
		Commands: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rovercam_commands_total",
				Help: "Total number of rover commands submitted",
			},
			[]string{"result"}, // result: published, throttled, failed
		),

		// HTTP metrics
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rovercam_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rovercam_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	return m
}

// RecordFrame records an admitted frame and the relay estimates that followed it
func (m *Metrics) RecordFrame(size int, intervalSeconds, fps, timeoutSeconds float64) {
	m.FramesReceived.Inc()
	m.FrameSize.Observe(float64(size))
	if intervalSeconds > 0 {
		m.FrameInterval.Observe(intervalSeconds)
	}
	m.ProducerFPS.Set(fps)
	m.DynamicTimeout.Set(timeoutSeconds)
}

// RecordRejected records a rejected upload
func (m *Metrics) RecordRejected(reason string) {
	m.FramesRejected.WithLabelValues(reason).Inc()
}

// RecordLiveServed records a live frame served to a consumer
func (m *Metrics) RecordLiveServed(ageSeconds float64) {
	m.StreamResponses.WithLabelValues("live").Inc()
	m.FrameAge.Observe(ageSeconds)
}

// RecordPlaceholderServed records a placeholder served to a consumer
func (m *Metrics) RecordPlaceholderServed() {
	m.StreamResponses.WithLabelValues("placeholder").Inc()
}

// RecordViewerStart records a websocket viewer connecting
func (m *Metrics) RecordViewerStart() {
	m.ActiveViewers.Inc()
	m.ViewerSessions.Inc()
}

// RecordViewerStop records a websocket viewer leaving
func (m *Metrics) RecordViewerStop() {
	m.ActiveViewers.Dec()
}

// RecordFramesDropped records frames replaced in viewer queues
func (m *Metrics) RecordFramesDropped(n int) {
	if n > 0 {
		m.FramesDropped.Add(float64(n))
	}
}

// RecordCommand records the outcome of a rover command
func (m *Metrics) RecordCommand(result string) {
	m.Commands.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, path, statusCodeToString(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// statusCodeToString converts an HTTP status code to a string
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
