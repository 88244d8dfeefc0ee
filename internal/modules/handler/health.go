package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stagetrack-io/stagetrack/internal/pkg/utils"
)

type HealthHandler struct {
	started time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{started: time.Now()}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    int64  `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// Health reports liveness with process uptime in seconds.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Uptime:    int64(time.Since(h.started).Seconds()),
		Timestamp: utils.Timestamp(time.Now()),
	})
}
