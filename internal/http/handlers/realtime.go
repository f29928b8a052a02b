package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/floortrack/floortrack-backend/internal/http/response"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
	"github.com/floortrack/floortrack-backend/internal/requestdata"
	"github.com/floortrack/floortrack-backend/internal/sse"
)

type RealtimeHandler struct {
	Log *logger.Logger
	Hub *sse.SSEHub

	mu      sync.RWMutex
	clients map[uuid.UUID]*sse.SSEClient // keyed by client id
}

func NewRealtimeHandler(log *logger.Logger, hub *sse.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{
		Log:     log,
		Hub:     hub,
		clients: make(map[uuid.UUID]*sse.SSEClient),
	}
}

// GET /sse/stream?station_id=
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.WorkerID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	client := h.Hub.NewSSEClient(rd.WorkerID)

	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	if raw := c.Query("station_id"); raw != "" {
		stationID, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "", err)
			return
		}
		h.Hub.AddChannel(client, sse.StationChannel(stationID))
	}

	h.Log.Info("SSE stream open", "worker_id", rd.WorkerID, "client_id", client.ID)
	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	h.mu.Lock()
	delete(h.clients, client.ID)
	h.mu.Unlock()
	h.Hub.CloseClient(client)
}

// POST /sse/subscribe  body: { "client_id": "...", "station_id": "..." }
func (h *RealtimeHandler) SSESubscribe(c *gin.Context) {
	var req struct {
		ClientID  uuid.UUID `json:"client_id"`
		StationID uuid.UUID `json:"station_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.StationID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription"})
		return
	}

	h.mu.RLock()
	client := h.clients[req.ClientID]
	h.mu.RUnlock()
	if client == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown client"})
		return
	}
	h.Hub.AddChannel(client, sse.StationChannel(req.StationID))
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /sse/unsubscribe  body: { "client_id": "...", "station_id": "..." }
func (h *RealtimeHandler) SSEUnsubscribe(c *gin.Context) {
	var req struct {
		ClientID  uuid.UUID `json:"client_id"`
		StationID uuid.UUID `json:"station_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.StationID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription"})
		return
	}

	h.mu.RLock()
	client := h.clients[req.ClientID]
	h.mu.RUnlock()
	if client == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown client"})
		return
	}
	h.Hub.RemoveChannel(client, sse.StationChannel(req.StationID))
	response.RespondOK(c, gin.H{"ok": true})
}
