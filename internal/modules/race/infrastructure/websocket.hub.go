package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"codeDuelWs/internal/modules/race/domain"
)

// Hub tracks live WebSocket connections and their room subscriptions. A
// connection subscribes to exactly one room, the moment its join succeeds,
// and stays subscribed until it disconnects.
type Hub struct {
	rooms   map[string]map[*Client]struct{}
	clients map[string]*Client
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[string]*Client),
	}
}

// AttachClient registers a freshly upgraded connection. It is not
// subscribed to any room yet.
func (h *Hub) AttachClient(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	slog.Info("ws client attached", slog.String("connId", c.id))
}

// Subscribe binds the client to a room's broadcast fan-out.
func (h *Hub) Subscribe(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]struct{})
	}
	h.rooms[roomID][c] = struct{}{}
	c.setRoom(roomID)
	slog.Debug("ws client subscribed", slog.String("connId", c.id), slog.String("roomId", roomID))
}

// DetachClient drops the client from its room and from the hub, then closes
// it. Close hooks registered on the client fire exactly once, outside the
// hub lock: the disconnect-to-leave hook broadcasts through this hub.
func (h *Hub) DetachClient(c *Client) {
	if c == nil {
		return
	}
	h.mu.Lock()
	if roomID := c.Room(); roomID != "" {
		if subs, ok := h.rooms[roomID]; ok {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	delete(h.clients, c.id)
	h.mu.Unlock()

	c.close()
	slog.Info("ws client detached", slog.String("connId", c.id))
}

// Broadcast fans msg out to every connection subscribed to roomID. The
// payload is marshalled once. A subscriber whose send buffer is full is
// detached rather than allowed to stall the room. Queueing happens under
// the read lock: a client's send channel is only closed after its removal
// under the write lock, so subscribers seen here are always open.
func (h *Hub) Broadcast(_ context.Context, roomID string, msg *domain.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("broadcast marshal error", slog.Any("error", err))
		return
	}

	var stalled []*Client
	h.mu.RLock()
	for c := range h.rooms[roomID] {
		select {
		case c.send <- data:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		slog.Warn("ws send buffer full, detaching", slog.String("connId", c.id), slog.String("roomId", roomID))
		go h.DetachClient(c)
	}
}

// queueTo sends data to a single attached client, reporting whether the
// client's buffer had room. Detached clients are skipped.
func (h *Hub) queueTo(c *Client, data []byte) (attached, queued bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.id]; !ok {
		return false, false
	}
	select {
	case c.send <- data:
		return true, true
	default:
		return true, false
	}
}
