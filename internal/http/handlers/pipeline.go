package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/floortrack/floortrack-backend/internal/http/response"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/services"
)

type PipelineHandler struct {
	wipService services.WipService
}

func NewPipelineHandler(wipService services.WipService) *PipelineHandler {
	return &PipelineHandler{wipService: wipService}
}

// POST /job-items/:id/pipeline
func (h *PipelineHandler) Setup(c *gin.Context) {
	jobItemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	var req struct {
		StationIDs []uuid.UUID `json:"station_ids"`
		PresetID   *uuid.UUID  `json:"preset_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	steps, err := h.wipService.SetupPipeline(dbctx.Context{Ctx: c.Request.Context()}, jobItemID, req.StationIDs, req.PresetID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"steps": steps})
}

// GET /job-items/:id/pipeline
func (h *PipelineHandler) Get(c *gin.Context) {
	jobItemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	snapshot, err := h.wipService.GetPipelineSnapshot(dbctx.Context{Ctx: c.Request.Context()}, jobItemID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, snapshot)
}
