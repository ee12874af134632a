package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/ws"
)

const heartbeatInterval = 30 * time.Second

// handleWS subscribes a WebSocket client to one job's progress
// stream: an initial snapshot, a replay of the latest event, then
// live events, with a heartbeat every 30 seconds.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		slog.Warn("websocket accept failed", "job", jobID, "err", err)
		return
	}
	conn.SetReadLimit(64 * 1024)
	defer conn.CloseNow()

	ctx := r.Context()

	job := s.Jobs.Get(jobID)
	if job == nil {
		writeEvent(ctx, conn, ws.Error{Type: ws.TypeError, Message: "job " + jobID + " not found"})
		conn.Close(websocket.StatusNormalClosure, "unknown job")
		return
	}

	writeEvent(ctx, conn, ws.Initial{
		Type: ws.TypeInitial,
		Job: ws.JobSummary{
			ID:        job.ID,
			Status:    job.Status,
			CreatedAt: job.CreatedAt.Format(time.RFC3339Nano),
		},
	})

	s.Hub.Subscribe(ctx, jobID, conn)
	defer s.Hub.Unsubscribe(jobID, conn)

	// Heartbeats while the read loop blocks.
	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				writeEvent(hbCtx, conn, ws.Heartbeat{Type: ws.TypeHeartbeat})
			}
		}
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			slog.Debug("websocket closed", "job", jobID, "err", err)
			return
		}
		if string(data) == "ping" {
			conn.Write(ctx, websocket.MessageText, []byte("pong"))
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, event any) {
	writeCtx, cancel := context.WithTimeout(ctx, broadcastWriteTimeout)
	defer cancel()
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	conn.Write(writeCtx, websocket.MessageText, data)
}
