package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"rovercam/config"
	"rovercam/httpServer"
	"rovercam/internal/auth"
	"rovercam/internal/control"
	"rovercam/internal/framehub"
	"rovercam/internal/metrics"
	"rovercam/internal/relay"
	"rovercam/internal/storage"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	log, err := cfg.NewLogger()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid logging configuration")
	}
	if log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting rover camera relay...")
	log.WithFields(logrus.Fields{
		"http":          cfg.HTTPAddr,
		"maxFrameBytes": cfg.MaxFrameBytes,
		"minTimeout":    cfg.MinTimeout,
		"maxTimeout":    cfg.MaxTimeout,
		"uploadAuth":    cfg.UploadAuth,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load placeholder image
	placeholder, local, closeStorage, err := loadPlaceholder(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to load placeholder image")
	}
	defer closeStorage()

	// Initialize metrics
	reg := prometheus.DefaultRegisterer
	m := metrics.New(reg)
	log.Debug("Prometheus metrics initialized")

	// Initialize relay, hub and auth
	r := relay.New(
		relay.WithMaxFrameBytes(cfg.MaxFrameBytes),
		relay.WithTimeoutPolicy(relay.TimeoutPolicy{
			Min:        cfg.MinTimeout,
			Max:        cfg.MaxTimeout,
			Multiplier: cfg.TimeoutMultiplier,
		}),
	)
	hub := framehub.New()
	authManager := auth.New(cfg.DefaultTokenExpiration, cfg.MaxTokenExpiration)
	go authManager.Run(ctx, time.Minute)

	// Initialize rover control
	var publisher control.Publisher
	if cfg.MQTTBroker != "" {
		mqttPub := control.NewMQTTPublisher(control.MQTTOptions{
			Broker:   cfg.MQTTBroker,
			Topic:    cfg.MQTTTopic,
			ClientID: cfg.MQTTClientID,
		}, log)

		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := mqttPub.Connect(connectCtx); err != nil {
			log.WithError(err).Warn("MQTT broker unreachable, retrying in background")
		}
		cancel()
		defer mqttPub.Close()
		publisher = mqttPub
	} else {
		log.Info("MQTT_BROKER not set, rover control disabled")
	}

	// Initialize HTTP server
	srv := httpServer.New(httpServer.Deps{
		Relay:        r,
		Hub:          hub,
		Auth:         authManager,
		Metrics:      m,
		Gatherer:     prometheus.DefaultGatherer,
		Publisher:    publisher,
		Throttle:     control.NewThrottle(cfg.CommandThrottle),
		Placeholder:  placeholder,
		UploadAuth:   cfg.UploadAuth,
		AdminKey:     cfg.AdminKey,
		ViewerBuffer: cfg.WSClientBuffer,
		Logger:       log,
	})

	if local != nil {
		if err := storage.WatchPlaceholder(ctx, local, cfg.PlaceholderPath, srv.SetPlaceholder, log); err != nil {
			log.WithError(err).Warn("Placeholder hot reload disabled")
		}
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		log.Info("  POST /api/camera/upload")
		log.Info("  GET  /api/camera/stream")
		log.Info("  GET  /api/camera/status")
		log.Info("  GET  /api/camera/ws")
		log.Info("  POST /api/rover/command")
		log.Info("  GET  /metrics")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	hub.Close()
	log.Info("Stopped")
}

// loadPlaceholder reads the configured placeholder from local disk or GCS,
// falling back to the built-in image when no path is configured. The local
// backend is returned so the file can be watched for changes.
func loadPlaceholder(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) ([]byte, *storage.LocalStorage, func(), error) {
	noop := func() {}
	if cfg.PlaceholderPath == "" {
		return relay.DefaultPlaceholder, nil, noop, nil
	}

	var backend storage.Storage
	var local *storage.LocalStorage
	closeFn := noop

	switch cfg.StorageType {
	case "gcs":
		gcs, err := storage.NewGCSStorage(ctx, cfg.GCSBucketName, cfg.GCSBaseDir)
		if err != nil {
			return nil, nil, noop, err
		}
		backend = gcs
		closeFn = func() { gcs.Close() }
		log.WithFields(logrus.Fields{
			"bucket":  cfg.GCSBucketName,
			"baseDir": cfg.GCSBaseDir,
		}).Info("Storage initialized: GCS")
	default:
		var err error
		local, err = storage.NewLocalStorage(cfg.StorageDir)
		if err != nil {
			return nil, nil, noop, err
		}
		backend = local
		log.WithField("dir", cfg.StorageDir).Info("Storage initialized: local")
	}

	data, err := storage.LoadPlaceholder(ctx, backend, cfg.PlaceholderPath)
	if err != nil {
		closeFn()
		return nil, nil, noop, err
	}
	log.WithFields(logrus.Fields{
		"path": cfg.PlaceholderPath,
		"size": len(data),
	}).Info("Placeholder image loaded")
	return data, local, closeFn, nil
}
