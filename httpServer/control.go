package httpServer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rovercam/internal/control"
	"rovercam/pkg/models"
)

const (
	maxCommandBytes = 1024
	publishTimeout  = 2 * time.Second
)

func (s *Server) handleCommand(c *gin.Context) {
	if s.publisher == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody("rover control is not configured"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCommandBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("failed to read command"))
		return
	}
	cmd, err := control.ParseCommand(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	resp := models.CommandResponse{
		Status:  "success",
		Command: cmd.Command,
	}
	if control.IsMovement(cmd) {
		resp.Speed = cmd.Speed
	}

	if !s.throttle.Allow(cmd.Command) {
		s.metrics.RecordCommand("throttled")
		resp.Reason = "throttled"
		c.JSON(http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), publishTimeout)
	defer cancel()

	log := s.log.WithFields(logrus.Fields{"command": cmd.Command, "speed": cmd.Speed})
	if err := s.publisher.Publish(ctx, cmd); err != nil {
		s.metrics.RecordCommand("failed")
		log.WithError(err).Warn("Failed to publish command")

		status := http.StatusBadGateway
		if errors.Is(err, control.ErrNotConnected) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, errorBody(err.Error()))
		return
	}

	s.throttle.Record(cmd.Command)
	s.metrics.RecordCommand("published")
	log.Info("Command published")

	resp.Published = true
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleControlStatus(c *gin.Context) {
	if s.publisher == nil {
		c.JSON(http.StatusOK, models.ControlStatus{Enabled: false})
		return
	}
	c.JSON(http.StatusOK, s.publisher.Status())
}
