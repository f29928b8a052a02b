package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/sse"
)

// FloorNotifier pushes live session activity to station dashboards. Emissions
// happen after the owning transaction commits; a nil notifier is a no-op.
type FloorNotifier interface {
	SessionStarted(session *types.Session)
	SessionStatusChanged(session *types.Session, event *types.StatusEvent)
	SessionEnded(session *types.Session)
	SessionTakenOver(session *types.Session)
	ReportCreated(report *types.Report)
	ReportStatusChanged(report *types.Report)
	WipConsumed(stationID uuid.UUID, jobItemID uuid.UUID, stepID uuid.UUID, good, scrap int64)
}

type floorNotifier struct {
	emit SSEEmitter
}

func NewFloorNotifier(emit SSEEmitter) FloorNotifier {
	return &floorNotifier{emit: emit}
}

func (n *floorNotifier) SessionStarted(session *types.Session) {
	if n == nil || n.emit == nil || session == nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sse.StationChannel(session.StationID),
		Event:   sse.SSEEventSessionStarted,
		Data:    map[string]any{"session": session},
	})
}

func (n *floorNotifier) SessionStatusChanged(session *types.Session, event *types.StatusEvent) {
	if n == nil || n.emit == nil || session == nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sse.StationChannel(session.StationID),
		Event:   sse.SSEEventSessionStatusChanged,
		Data: map[string]any{
			"session":      session,
			"status_event": event,
		},
	})
}

func (n *floorNotifier) SessionEnded(session *types.Session) {
	if n == nil || n.emit == nil || session == nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sse.StationChannel(session.StationID),
		Event:   sse.SSEEventSessionEnded,
		Data:    map[string]any{"session": session},
	})
}

func (n *floorNotifier) SessionTakenOver(session *types.Session) {
	if n == nil || n.emit == nil || session == nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sse.StationChannel(session.StationID),
		Event:   sse.SSEEventSessionTakenOver,
		Data: map[string]any{
			"session_id":  session.ID,
			"instance_id": session.InstanceID,
		},
	})
}

func (n *floorNotifier) ReportCreated(report *types.Report) {
	if n == nil || n.emit == nil || report == nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sse.StationChannel(report.StationID),
		Event:   sse.SSEEventReportCreated,
		Data:    map[string]any{"report": report},
	})
}

func (n *floorNotifier) ReportStatusChanged(report *types.Report) {
	if n == nil || n.emit == nil || report == nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sse.StationChannel(report.StationID),
		Event:   sse.SSEEventReportStatusChanged,
		Data:    map[string]any{"report": report},
	})
}

func (n *floorNotifier) WipConsumed(stationID uuid.UUID, jobItemID uuid.UUID, stepID uuid.UUID, good, scrap int64) {
	if n == nil || n.emit == nil || stationID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sse.StationChannel(stationID),
		Event:   sse.SSEEventWipConsumed,
		Data: map[string]any{
			"job_item_id":      jobItemID,
			"job_item_step_id": stepID,
			"quantity_good":    good,
			"quantity_scrap":   scrap,
		},
	})
}
