package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordFrame(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordFrame(1000, 0, 0, 1)
	m.RecordFrame(1000, 0.2, 5, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesReceived))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ProducerFPS))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DynamicTimeout))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FrameInterval))
}

func TestStreamResponses(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordLiveServed(0.1)
	m.RecordPlaceholderServed()
	m.RecordPlaceholderServed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamResponses.WithLabelValues("live")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StreamResponses.WithLabelValues("placeholder")))
}

func TestViewersAndDrops(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordViewerStart()
	m.RecordViewerStart()
	m.RecordViewerStop()
	m.RecordFramesDropped(0)
	m.RecordFramesDropped(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveViewers))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ViewerSessions))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.FramesDropped))
}

func TestStatusCodeToString(t *testing.T) {
	tests := map[int]string{
		200: "2xx",
		204: "2xx",
		304: "3xx",
		400: "4xx",
		503: "5xx",
		100: "unknown",
	}
	for code, want := range tests {
		assert.Equal(t, want, statusCodeToString(code), code)
	}
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
