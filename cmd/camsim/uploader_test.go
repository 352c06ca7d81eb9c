package main

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rovercam/httpServer"
	"rovercam/internal/relay"
)

func newRelayServer(t *testing.T, d httpServer.Deps) (*httptest.Server, *relay.Relay) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if d.Relay == nil {
		d.Relay = relay.New()
	}
	ts := httptest.NewServer(httpServer.New(d).Handler())
	t.Cleanup(ts.Close)
	return ts, d.Relay
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestSyntheticFrameIsJPEG(t *testing.T) {
	a, ct, err := SyntheticFrame(1)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)
	b, _, err := SyntheticFrame(2)
	require.NoError(t, err)

	_, err = jpeg.Decode(bytes.NewReader(a))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", http.DetectContentType(a))
	assert.NotEqual(t, a, b)
}

func TestUploaderUpload(t *testing.T) {
	ts, r := newRelayServer(t, httpServer.Deps{Logger: quietLogger()})

	frame, _, err := SyntheticFrame(0)
	require.NoError(t, err)

	u := NewUploader(ts.URL+"/", "", time.Second)
	resp, err := u.Upload(context.Background(), "image/jpeg", frame)
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, len(frame), resp.FrameSize)

	snap := r.Snapshot()
	require.NotNil(t, snap.Frame)
	assert.Equal(t, frame, snap.Frame.Data)
}

func TestUploaderReportsRejection(t *testing.T) {
	ts, _ := newRelayServer(t, httpServer.Deps{
		Relay:  relay.New(relay.WithMaxFrameBytes(8)),
		Logger: quietLogger(),
	})

	u := NewUploader(ts.URL, "", time.Second)
	_, err := u.Upload(context.Background(), "image/jpeg", make([]byte, 100))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File too large")
}

func TestUploaderSendsToken(t *testing.T) {
	ts, _ := newRelayServer(t, httpServer.Deps{UploadAuth: true, Logger: quietLogger()})

	u := NewUploader(ts.URL, "bogus", time.Second)
	_, err := u.Upload(context.Background(), "image/jpeg", []byte{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestRunStopsAfterCount(t *testing.T) {
	ts, r := newRelayServer(t, httpServer.Deps{Logger: quietLogger()})

	u := NewUploader(ts.URL, "", time.Second)
	sent, err := Run(context.Background(), u, SyntheticFrame, 5*time.Millisecond, 3, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Equal(t, uint64(3), r.Status().FramesReceived)
}

func TestStaticFrameDetectsType(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))

	_, ct, err := StaticFrame(buf.Bytes(), "")(0)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	_, ct, err = StaticFrame(buf.Bytes(), "image/jpeg")(0)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct, "an explicit type wins")
}

func TestRunUploadsPNGFileAsPNG(t *testing.T) {
	ts, r := newRelayServer(t, httpServer.Deps{Logger: quietLogger()})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))

	u := NewUploader(ts.URL, "", time.Second)
	sent, err := Run(context.Background(), u, StaticFrame(buf.Bytes(), ""), time.Millisecond, 1, quietLogger())
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	snap := r.Snapshot()
	require.NotNil(t, snap.Frame)
	assert.Equal(t, "image/png", snap.Frame.ContentType)
}

func TestRunStopsOnCancel(t *testing.T) {
	ts, _ := newRelayServer(t, httpServer.Deps{Logger: quietLogger()})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	u := NewUploader(ts.URL, "", time.Second)
	sent, err := Run(ctx, u, StaticFrame([]byte{0xff, 0xd8, 0xff}, "image/jpeg"), 10*time.Millisecond, 0, quietLogger())
	require.NoError(t, err)
	assert.Greater(t, sent, 0)
}
