package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/floortrack/floortrack-backend/internal/http/response"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/requestdata"
	"github.com/floortrack/floortrack-backend/internal/services"
)

type SessionHandler struct {
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// POST /sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req services.CreateSessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	if req.WorkerID == uuid.Nil {
		if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
			req.WorkerID = rd.WorkerID
		}
	}
	session, err := h.sessionService.Create(dbctx.Context{Ctx: c.Request.Context()}, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

// POST /sessions/:id/status
func (h *SessionHandler) StartStatusEvent(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	var req services.StartStatusEventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	event, err := h.sessionService.StartStatusEvent(dbctx.Context{Ctx: c.Request.Context()}, sessionID, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status_event": event})
}

// POST /sessions/:id/status/:eventId/end-production
func (h *SessionHandler) EndProductionStatus(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	var req services.EndProductionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	result, err := h.sessionService.EndProductionStatus(dbctx.Context{Ctx: c.Request.Context()}, sessionID, eventID, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}

// POST /sessions/:id/bind
func (h *SessionHandler) BindJobItem(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	var req services.BindJobItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	session, err := h.sessionService.BindJobItem(dbctx.Context{Ctx: c.Request.Context()}, sessionID, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

// POST /sessions/:id/complete
func (h *SessionHandler) Complete(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	session, err := h.sessionService.Complete(dbctx.Context{Ctx: c.Request.Context()}, sessionID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

// POST /sessions/:id/abort
func (h *SessionHandler) Abort(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	session, err := h.sessionService.Abort(dbctx.Context{Ctx: c.Request.Context()}, sessionID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

// POST /sessions/:id/takeover
func (h *SessionHandler) Takeover(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	var req struct {
		InstanceID uuid.UUID `json:"instance_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	session, err := h.sessionService.Takeover(dbctx.Context{Ctx: c.Request.Context()}, sessionID, req.InstanceID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

// GET /sessions/active
func (h *SessionHandler) GetActive(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.WorkerID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "", nil)
		return
	}
	view, err := h.sessionService.GetActiveForWorker(dbctx.Context{Ctx: c.Request.Context()}, rd.WorkerID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	if view == nil {
		response.RespondOK(c, gin.H{"session": nil})
		return
	}
	response.RespondOK(c, view)
}

// POST /workers/:id/close-sessions
func (h *SessionHandler) CloseForWorker(c *gin.Context) {
	workerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "", err)
		return
	}
	ids, err := h.sessionService.CloseActiveForWorker(dbctx.Context{Ctx: c.Request.Context()}, workerID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"closed_session_ids": ids})
}
