package httpServer

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rovercam/pkg/models"
)

func (s *Server) handleIssueToken(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if req.ExpiresIn < 0 {
		c.JSON(http.StatusBadRequest, errorBody("expiresIn must not be negative"))
		return
	}

	token, err := s.authManager.GenerateUploadToken(req.ExpiresIn, c.ClientIP())
	if err != nil {
		s.log.WithError(err).Error("Failed to generate upload token")
		c.JSON(http.StatusInternalServerError, errorBody("failed to generate token"))
		return
	}

	s.log.WithFields(logrus.Fields{
		"issuedTo":  token.IssuedTo,
		"expiresAt": token.ExpiresAt,
	}).Info("Upload token issued")

	c.JSON(http.StatusOK, models.TokenResponse{
		Token:     token.Token,
		UploadURL: fmt.Sprintf("%s/api/camera/upload?token=%s", baseURL(c), token.Token),
		ExpiresAt: token.ExpiresAt.Format(time.RFC3339),
	})
}

func (s *Server) handleRevokeToken(c *gin.Context) {
	if !s.authManager.RevokeToken(c.Param("token")) {
		c.JSON(http.StatusNotFound, errorBody("token not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "token revoked",
	})
}

// baseURL rebuilds the externally visible origin of the request
func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
