package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stagetrack-io/stagetrack/internal/modules/serializer"
	"github.com/stagetrack-io/stagetrack/internal/modules/service"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	svc service.TrackerService
	log *zap.Logger
}

func NewProjectHandler(svc service.TrackerService, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, log: log}
}

// Completed lists completed projects, optionally filtered by completion
// month and year (inclusive AND when both are given). Derived state is
// re-evaluated and persisted before answering so status is never stale.
func (h *ProjectHandler) Completed(c *gin.Context) {
	month, ok := intQuery(c, "month")
	if !ok {
		c.JSON(http.StatusBadRequest, serializer.Err("month must be an integer"))
		return
	}
	year, ok := intQuery(c, "year")
	if !ok {
		c.JSON(http.StatusBadRequest, serializer.Err("year must be an integer"))
		return
	}

	out, err := h.svc.CompletedProjects(c.Request.Context(), month, year)
	if err != nil {
		h.log.Sugar().Errorw("completed projects query failed", "err", err)
		c.JSON(http.StatusInternalServerError, serializer.Err("failed to read store"))
		return
	}
	c.JSON(http.StatusOK, out)
}

// InProgress lists every project that is not completed.
func (h *ProjectHandler) InProgress(c *gin.Context) {
	out, err := h.svc.InProgressProjects(c.Request.Context())
	if err != nil {
		h.log.Sugar().Errorw("in-progress projects query failed", "err", err)
		c.JSON(http.StatusInternalServerError, serializer.Err("failed to read store"))
		return
	}
	c.JSON(http.StatusOK, out)
}

// Evaluate forces a derived-state pass and reports per-project outcomes.
func (h *ProjectHandler) Evaluate(c *gin.Context) {
	out, err := h.svc.EvaluateAll(c.Request.Context())
	if err != nil {
		h.log.Sugar().Errorw("evaluate failed", "err", err)
		c.JSON(http.StatusInternalServerError, serializer.Err("failed to read store"))
		return
	}
	c.JSON(http.StatusOK, out)
}

// intQuery parses an optional integer query parameter. The bool is false
// only when the parameter is present but not an integer.
func intQuery(c *gin.Context, name string) (*int, bool) {
	raw, exists := c.GetQuery(name)
	if !exists || raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	return &v, true
}
