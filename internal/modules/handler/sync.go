package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stagetrack-io/stagetrack/internal/modules/model"
	"github.com/stagetrack-io/stagetrack/internal/modules/serializer"
	"github.com/stagetrack-io/stagetrack/internal/modules/service"
	"go.uber.org/zap"
)

type SyncHandler struct {
	svc service.TrackerService
	log *zap.Logger
}

func NewSyncHandler(svc service.TrackerService, log *zap.Logger) *SyncHandler {
	return &SyncHandler{svc: svc, log: log}
}

type SyncReq struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

// Sync replaces one named collection whole. Non-array payloads and unknown
// keys are rejected with 400 and never reach the store; malformed JSON
// bodies surface as 500 like any other internal fault.
func (h *SyncHandler) Sync(c *gin.Context) {
	var req SyncReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusInternalServerError, serializer.Err("invalid JSON body"))
		return
	}
	if req.Key == "" {
		c.JSON(http.StatusBadRequest, serializer.Err("key is required"))
		return
	}
	if !isJSONArray(req.Data) {
		c.JSON(http.StatusBadRequest, serializer.Err("data must be an array"))
		return
	}

	if err := h.svc.Sync(c.Request.Context(), req.Key, req.Data); err != nil {
		if errors.Is(err, model.ErrUnknownCollection) || errors.Is(err, model.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, serializer.Err(err.Error()))
			return
		}
		h.log.Sugar().Errorw("sync failed", "key", req.Key, "err", err)
		c.JSON(http.StatusInternalServerError, serializer.Err("failed to save store"))
		return
	}
	c.JSON(http.StatusOK, serializer.SyncAck{Success: true})
}

// Data returns the whole-store snapshot.
func (h *SyncHandler) Data(c *gin.Context) {
	doc, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		h.log.Sugar().Errorw("snapshot failed", "err", err)
		c.JSON(http.StatusInternalServerError, serializer.Err("failed to read store"))
		return
	}
	c.JSON(http.StatusOK, doc)
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
