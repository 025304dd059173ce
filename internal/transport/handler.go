package transport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-camera-inspector/internal/config"
	"go-camera-inspector/internal/logger"
	"go-camera-inspector/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler builds the report server routes: a health probe, the
// latest run payload as JSON, and the rendered report documents as
// static files.
func NewHandler(runs *service.RunService, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.GET("/health", healthCheck)
	r.GET("/api/latest", latestReport(runs))
	r.Static("/reports", cfg.Output.ReportsDir)

	return r
}

func latestReport(runs *service.RunService) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload := runs.Latest()
		if payload == nil {
			c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{
				Error:   http.StatusText(http.StatusNotFound),
				Message: "no completed run yet",
			})
			return
		}

		logger.WithFields(logrus.Fields{
			"run_id": payload.RunID,
			"ip":     c.ClientIP(),
		}).Debug("Serving latest run payload")

		c.JSON(http.StatusOK, payload)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
