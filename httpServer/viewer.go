package httpServer

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"rovercam/pkg/models"
)

const (
	viewerPingInterval  = 54 * time.Second
	viewerReadDeadline  = 60 * time.Second
	viewerWriteDeadline = 10 * time.Second
	viewerReadLimit     = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // viewers are embedded on arbitrary pages
	},
}

// viewer pushes admitted frames to one websocket client
type viewer struct {
	conn    *websocket.Conn
	frames  <-chan *models.Frame
	cleanup func()
	lastSeq uint64
	log     logrus.FieldLogger
}

func (s *Server) handleViewer(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	frames, cleanup := s.hub.Subscribe(s.viewerBuf)
	v := &viewer{
		conn:    conn,
		frames:  frames,
		cleanup: cleanup,
		log:     s.log.WithField("remote", conn.RemoteAddr().String()),
	}

	var initial *models.Frame
	if view := s.relay.Lookup(); view.Live {
		initial = view.Frame
	}

	s.metrics.RecordViewerStart()
	v.log.Debug("Viewer connected")

	go v.writePump(initial, func() {
		s.metrics.RecordViewerStop()
		v.log.Debug("Viewer disconnected")
	})
	go v.readPump()
}

// readPump drains client messages so pongs and close frames are processed
func (v *viewer) readPump() {
	defer func() {
		v.cleanup()
		v.conn.Close()
	}()

	v.conn.SetReadLimit(viewerReadLimit)
	v.conn.SetReadDeadline(time.Now().Add(viewerReadDeadline))
	v.conn.SetPongHandler(func(string) error {
		v.conn.SetReadDeadline(time.Now().Add(viewerReadDeadline))
		return nil
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				v.log.WithError(err).Warn("WebSocket read error")
			}
			return
		}
	}
}

// writePump sends the current frame, then every newer frame, as binary messages
func (v *viewer) writePump(initial *models.Frame, done func()) {
	ticker := time.NewTicker(viewerPingInterval)
	defer func() {
		ticker.Stop()
		v.conn.Close()
		done()
	}()

	if initial != nil {
		if err := v.send(initial); err != nil {
			return
		}
	}

	for {
		select {
		case frame, ok := <-v.frames:
			if !ok {
				v.conn.SetWriteDeadline(time.Now().Add(viewerWriteDeadline))
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if frame.Sequence <= v.lastSeq {
				continue
			}
			if err := v.send(frame); err != nil {
				v.log.WithError(err).Debug("WebSocket write error")
				return
			}

		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(viewerWriteDeadline))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (v *viewer) send(frame *models.Frame) error {
	v.conn.SetWriteDeadline(time.Now().Add(viewerWriteDeadline))
	if err := v.conn.WriteMessage(websocket.BinaryMessage, frame.Data); err != nil {
		return err
	}
	v.lastSeq = frame.Sequence
	return nil
}
