package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const broadcastWriteTimeout = 2 * time.Second

// Hub fans progress events out to per-job WebSocket subscribers. The
// last event per job is retained and replayed to late subscribers so
// a client connecting after a terminal event still learns the
// outcome.
type Hub struct {
	mu   sync.Mutex
	subs map[string][]*websocket.Conn
	last map[string][]byte
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string][]*websocket.Conn),
		last: make(map[string][]byte),
	}
}

// Subscribe registers a connection for a job's events and immediately
// replays the most recent event, if any.
func (h *Hub) Subscribe(ctx context.Context, jobID string, conn *websocket.Conn) {
	h.mu.Lock()
	h.subs[jobID] = append(h.subs[jobID], conn)
	replay := h.last[jobID]
	h.mu.Unlock()

	if replay != nil {
		writeCtx, cancel := context.WithTimeout(ctx, broadcastWriteTimeout)
		conn.Write(writeCtx, websocket.MessageText, replay)
		cancel()
	}
}

// Unsubscribe removes a connection from a job's subscriber list.
func (h *Hub) Unsubscribe(jobID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.subs[jobID]
	for i, c := range list {
		if c == conn {
			h.subs[jobID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(h.subs[jobID]) == 0 {
		delete(h.subs, jobID)
	}
}

// Broadcast serialises the event once and sends it to every
// subscriber. A failed send drops the subscriber rather than blocking
// the broadcast.
func (h *Hub) Broadcast(ctx context.Context, jobID string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("broadcast marshal failed", "job", jobID, "err", err)
		return
	}

	h.mu.Lock()
	h.last[jobID] = data
	conns := append([]*websocket.Conn(nil), h.subs[jobID]...)
	h.mu.Unlock()

	var dead []*websocket.Conn
	for _, conn := range conns {
		writeCtx, cancel := context.WithTimeout(ctx, broadcastWriteTimeout)
		err := conn.Write(writeCtx, websocket.MessageText, data)
		cancel()
		if err != nil {
			dead = append(dead, conn)
		}
	}
	for _, conn := range dead {
		h.Unsubscribe(jobID, conn)
		conn.CloseNow()
	}
}

// LastEvent returns the retained event for a job, if any.
func (h *Hub) LastEvent(jobID string) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last[jobID]
}

// SubscriberCount reports the live subscriber count for a job.
func (h *Hub) SubscriberCount(jobID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[jobID])
}
