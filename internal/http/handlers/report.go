package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/floortrack/floortrack-backend/internal/data/repos"
	"github.com/floortrack/floortrack-backend/internal/http/response"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/services"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// POST /reports
func (h *ReportHandler) Create(c *gin.Context) {
	var req services.CreateReportInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	report, err := h.reportService.Create(dbctx.Context{Ctx: c.Request.Context()}, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": report})
}

// GET /reports?type=&status=&station_id=&job_item_id=&session_id=
func (h *ReportHandler) List(c *gin.Context) {
	filter := repos.ReportListFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
	}
	if raw := c.Query("station_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "", err)
			return
		}
		filter.StationID = id
	}
	if raw := c.Query("job_item_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "", err)
			return
		}
		filter.JobItemID = id
	}
	if raw := c.Query("session_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "", err)
			return
		}
		filter.SessionID = id
	}
	out, err := h.reportService.List(dbctx.Context{Ctx: c.Request.Context()}, filter)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reports": out})
}

// PATCH /reports/:id
func (h *ReportHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	var req services.UpdateReportInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	report, err := h.reportService.Update(dbctx.Context{Ctx: c.Request.Context()}, id, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": report})
}

// PATCH /reports/:id/status
func (h *ReportHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	report, err := h.reportService.UpdateStatus(dbctx.Context{Ctx: c.Request.Context()}, id, req.Status)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": report})
}

// GET /sessions/:id/approval/:stepId
func (h *ReportHandler) CheckApproval(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	stepID, err := uuid.Parse(c.Param("stepId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	check, err := h.reportService.CheckApprovalForSession(dbctx.Context{Ctx: c.Request.Context()}, sessionID, stepID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, check)
}
