package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	service string
}

func NewHealthHandler(service string) *HealthHandler {
	return &HealthHandler{service: service}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Index lists the public routes.
func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": h.service,
		"routes": gin.H{
			"health":   "/health",
			"webhook":  "/strava/webhook",
			"auth":     "/strava/auth",
			"callback": "/strava/callback",
			"tools":    "/api/v1/tools",
		},
	})
}
