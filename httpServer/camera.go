package httpServer

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rovercam/internal/relay"
	"rovercam/pkg/models"
)

func (s *Server) handleUpload(c *gin.Context) {
	if s.uploadAuth {
		if err := s.authManager.ValidateToken(uploadToken(c)); err != nil {
			s.relay.RecordRejected()
			s.metrics.RecordRejected("unauthorized")
			c.JSON(http.StatusUnauthorized, errorBody(err.Error()))
			return
		}
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.relay.MaxFrameBytes()+multipartSlack)

	fh, err := c.FormFile("frame")
	if c.Request.MultipartForm != nil {
		defer c.Request.MultipartForm.RemoveAll()
	}
	if err != nil {
		s.relay.RecordRejected()
		s.rejectUpload(c, formError(err))
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if err := s.relay.Validate(contentType, fh.Size); err != nil {
		s.rejectUpload(c, err)
		return
	}

	data, err := readPart(fh, s.relay.MaxFrameBytes())
	if err != nil {
		s.relay.RecordRejected()
		s.rejectUpload(c, &relay.InternalError{Op: "read frame", Err: err})
		return
	}

	res, err := s.relay.Ingest(contentType, data)
	if err != nil {
		s.rejectUpload(c, err)
		return
	}

	s.metrics.RecordFrame(res.Frame.Size(), res.Interval.Seconds(), res.FPS, res.DynamicTimeout.Seconds())
	s.metrics.RecordFramesDropped(s.hub.Publish(res.Frame))

	s.log.WithFields(logrus.Fields{
		"size":     res.Frame.Size(),
		"sequence": res.Frame.Sequence,
		"fps":      res.FPS,
		"timeout":  res.DynamicTimeout,
	}).Debug("Frame received")

	c.JSON(http.StatusOK, models.UploadResponse{
		Status:         "success",
		Message:        "Frame received",
		FrameSize:      res.Frame.Size(),
		FPS:            res.FPS,
		DynamicTimeout: res.DynamicTimeout.Milliseconds(),
	})
}

// rejectUpload maps an upload failure to its response and records it in
// metrics. The relay has already counted it.
func (s *Server) rejectUpload(c *gin.Context, err error) {
	var validationErr *relay.ValidationError
	var missingErr *relay.MissingDataError

	switch {
	case errors.As(err, &validationErr):
		s.metrics.RecordRejected("invalid")
		s.log.WithField("reason", validationErr.Reason).Info("Frame rejected")
		c.JSON(http.StatusBadRequest, errorBody(validationErr.Reason))
	case errors.As(err, &missingErr):
		s.metrics.RecordRejected("missing")
		s.log.Info("Upload without frame data")
		c.JSON(http.StatusBadRequest, errorBody(missingErr.Error()))
	default:
		s.metrics.RecordRejected("internal")
		s.log.WithError(err).Error("Failed to process frame")
		c.JSON(http.StatusInternalServerError, errorBody("Failed to process frame"))
	}
}

// formError classifies a multipart parsing failure
func formError(err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return &relay.ValidationError{Reason: "File too large"}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return &relay.MissingDataError{}
	default:
		return &relay.ValidationError{Reason: "Malformed multipart body"}
	}
}

// readPart reads at most limit+1 bytes so an oversized part is still detected
func readPart(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit+1))
}

// uploadToken reads the producer token from the Authorization header or query
func uploadToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return c.Query("token")
}

// handleStream serves the current frame with the content type it was uploaded
// with: image/jpeg for JPEG frames, image/png for PNG frames. Consumers that
// need to detect "no feed" should check X-Camera-Status or image/gif rather
// than expect image/jpeg.
func (s *Server) handleStream(c *gin.Context) {
	view := s.relay.Lookup()

	noCache(c)
	c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
	c.Header("Cross-Origin-Resource-Policy", "cross-origin")
	c.Header("X-Dynamic-Timeout", strconv.FormatInt(view.Timeout.Milliseconds(), 10))

	if !view.Live {
		placeholder := *s.placeholder.Load()
		s.metrics.RecordPlaceholderServed()
		c.Header("X-Camera-Status", "offline")
		c.Header("Content-Length", strconv.Itoa(len(placeholder)))
		c.Data(http.StatusOK, relay.PlaceholderContentType, placeholder)
		return
	}

	frame := view.Frame
	s.metrics.RecordLiveServed(view.Age.Seconds())
	c.Header("X-Camera-Status", "live")
	c.Header("X-Frame-Age", strconv.FormatInt(view.Age.Milliseconds(), 10))
	c.Header("Content-Length", strconv.Itoa(frame.Size()))
	c.Data(http.StatusOK, frame.ContentType, frame.Data)
}

func (s *Server) handleStatus(c *gin.Context) {
	status := s.relay.Status()
	status.Viewers = s.hub.SubscriberCount()

	noCache(c)
	c.JSON(http.StatusOK, status)
}
