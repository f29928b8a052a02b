package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/floortrack/floortrack-backend/internal/http/response"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/services"
)

type StatusDefinitionHandler struct {
	defService services.StatusDefinitionService
}

func NewStatusDefinitionHandler(defService services.StatusDefinitionService) *StatusDefinitionHandler {
	return &StatusDefinitionHandler{defService: defService}
}

// GET /status-definitions?station_id=
func (h *StatusDefinitionHandler) List(c *gin.Context) {
	var stationID uuid.UUID
	if raw := c.Query("station_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "", err)
			return
		}
		stationID = id
	}
	defs, err := h.defService.ListForStation(dbctx.Context{Ctx: c.Request.Context()}, stationID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status_definitions": defs})
}

// POST /status-definitions
func (h *StatusDefinitionHandler) Create(c *gin.Context) {
	var req services.CreateStatusDefinitionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	def, err := h.defService.Create(dbctx.Context{Ctx: c.Request.Context()}, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status_definition": def})
}

// PATCH /status-definitions/:id
func (h *StatusDefinitionHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	var req services.UpdateStatusDefinitionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	def, err := h.defService.Update(dbctx.Context{Ctx: c.Request.Context()}, id, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status_definition": def})
}

// DELETE /status-definitions/:id
func (h *StatusDefinitionHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	if err := h.defService.Delete(dbctx.Context{Ctx: c.Request.Context()}, id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
