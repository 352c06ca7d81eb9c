package httpServer

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"rovercam/internal/auth"
	"rovercam/internal/control"
	"rovercam/internal/framehub"
	"rovercam/internal/metrics"
	"rovercam/internal/relay"
)

// Extra body allowance on top of the frame cap for multipart framing
const multipartSlack = 64 << 10

// Deps are the collaborators the HTTP server is wired to
type Deps struct {
	Relay    *relay.Relay
	Hub      *framehub.Hub
	Auth     *auth.Manager
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // serves /metrics when set

	// Publisher forwards rover commands; nil disables the control endpoints
	Publisher control.Publisher
	Throttle  *control.Throttle

	Placeholder  []byte // served when no live frame exists
	UploadAuth   bool   // require an upload token from the producer
	AdminKey     string // guards token management when set
	ViewerBuffer int    // frames queued per websocket viewer

	Logger logrus.FieldLogger
}

// Server wraps the HTTP server with dependencies
type Server struct {
	router      *gin.Engine
	relay       *relay.Relay
	hub         *framehub.Hub
	authManager *auth.Manager
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
	publisher   control.Publisher
	throttle    *control.Throttle
	placeholder atomic.Pointer[[]byte]
	uploadAuth  bool
	adminKey    string
	viewerBuf   int
	log         logrus.FieldLogger
}

// New creates a new HTTP server
func New(d Deps) *Server {
	s := &Server{
		relay:       d.Relay,
		hub:         d.Hub,
		authManager: d.Auth,
		metrics:     d.Metrics,
		gatherer:    d.Gatherer,
		publisher:   d.Publisher,
		throttle:    d.Throttle,
		uploadAuth:  d.UploadAuth,
		adminKey:    d.AdminKey,
		viewerBuf:   d.ViewerBuffer,
		log:         d.Logger,
	}
	if s.relay == nil {
		s.relay = relay.New()
	}
	if s.hub == nil {
		s.hub = framehub.New()
	}
	if s.authManager == nil {
		s.authManager = auth.New(time.Hour, 24*time.Hour)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}
	s.SetPlaceholder(d.Placeholder)
	if s.throttle == nil {
		s.throttle = control.NewThrottle(control.DefaultThrottle)
	}
	if s.viewerBuf < 1 {
		s.viewerBuf = 1
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	router := gin.New()
	router.MaxMultipartMemory = s.relay.MaxFrameBytes() + multipartSlack
	router.Use(gin.Recovery(), requestID(), s.requestLogger(), corsHeaders())

	if s.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.GET("/ping", s.handlePing)
	}

	camera := api.Group("/camera")
	{
		camera.POST("/upload", s.handleUpload)
		camera.GET("/stream", s.handleStream)
		camera.GET("/status", s.handleStatus)
		camera.GET("/ws", s.handleViewer)
	}

	tokens := api.Group("/v1/camera/token", s.requireAdmin())
	{
		tokens.POST("", s.handleIssueToken)
		tokens.DELETE("/:token", s.handleRevokeToken)
	}

	rover := api.Group("/rover")
	{
		rover.POST("/command", s.handleCommand)
		rover.GET("/status", s.handleControlStatus)
	}

	s.router = router
}

// SetPlaceholder swaps the image served when no live frame exists; nil
// restores the built-in one
func (s *Server) SetPlaceholder(data []byte) {
	if data == nil {
		data = relay.DefaultPlaceholder
	}
	s.placeholder.Store(&data)
}

// Handler returns the root handler, for use with an http.Server
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
		"time":    time.Now().Unix(),
	})
}
