package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"rovercam/pkg/models"
)

// Uploader posts frames to a relay the way the rover camera does
type Uploader struct {
	client *http.Client
	url    string
	token  string
}

// NewUploader creates an uploader for the relay at baseURL
func NewUploader(baseURL, token string, timeout time.Duration) *Uploader {
	return &Uploader{
		client: &http.Client{Timeout: timeout},
		url:    strings.TrimRight(baseURL, "/") + "/api/camera/upload",
		token:  token,
	}
}

// Upload sends one frame as the multipart field "frame"
func (u *Uploader) Upload(ctx context.Context, contentType string, data []byte) (*models.UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	filename := "frame.jpg"
	if contentType == "image/png" {
		filename = "frame.png"
	}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="frame"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp models.ErrorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Message != "" {
			return nil, fmt.Errorf("upload rejected (%d): %s", resp.StatusCode, errResp.Message)
		}
		return nil, fmt.Errorf("upload rejected (%d)", resp.StatusCode)
	}

	var out models.UploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	return &out, nil
}

// FrameSource returns the bytes and content type of the n-th frame
type FrameSource func(n int) (data []byte, contentType string, err error)

// StaticFrame repeats the same image. An empty contentType is sniffed from
// the data.
func StaticFrame(data []byte, contentType string) FrameSource {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return func(int) ([]byte, string, error) { return data, contentType, nil }
}

// SyntheticFrame renders a small JPEG whose shade changes every frame
func SyntheticFrame(n int) ([]byte, string, error) {
	data, err := syntheticJPEG(n)
	return data, "image/jpeg", err
}

func syntheticJPEG(n int) ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, 64, 48))
	shade := color.Gray{Y: uint8(n * 8)}
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, shade)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Run uploads a frame every interval until count frames were sent (0 means
// forever) or ctx is done. Failed uploads are logged and do not stop the loop.
func Run(ctx context.Context, u *Uploader, source FrameSource, interval time.Duration, count int, log logrus.FieldLogger) (int, error) {
	sent := 0
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 0; count == 0 || n < count; n++ {
		data, contentType, err := source(n)
		if err != nil {
			return sent, fmt.Errorf("frame %d: %w", n, err)
		}

		resp, err := u.Upload(ctx, contentType, data)
		if err != nil {
			if ctx.Err() != nil {
				return sent, nil
			}
			log.WithError(err).Warn("Upload failed")
		} else {
			sent++
			log.WithFields(logrus.Fields{
				"frame":   n,
				"size":    resp.FrameSize,
				"fps":     resp.FPS,
				"timeout": resp.DynamicTimeout,
			}).Info("Frame uploaded")
		}

		if count != 0 && n+1 >= count {
			break
		}
		select {
		case <-ctx.Done():
			return sent, nil
		case <-ticker.C:
		}
	}
	return sent, nil
}
