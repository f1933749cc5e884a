package infrastructure

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"codeDuelWs/internal/modules/race/domain"
)

// Client wraps one WebSocket connection. Its identifier doubles as the
// participant identifier inside a session.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	id         string
	room       string
	roomMu     sync.Mutex
	commands   *CommandProcessor
	closeOnce  sync.Once
	closeHooks []func(*Client)
	hookMu     sync.Mutex
}

func NewClient(hub *Hub, conn *websocket.Conn, id string, buf int, commands *CommandProcessor) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, buf),
		id:       id,
		commands: commands,
	}
}

// ID returns the connection identifier.
func (c *Client) ID() string { return c.id }

// Room returns the room this connection is bound to, or "" before a
// successful join.
func (c *Client) Room() string {
	c.roomMu.Lock()
	defer c.roomMu.Unlock()
	return c.room
}

func (c *Client) setRoom(roomID string) {
	c.roomMu.Lock()
	c.room = roomID
	c.roomMu.Unlock()
}

// AddCloseHook registers a callback executed once when the client closes.
// The disconnect-to-leave flow hangs off this.
func (c *Client) AddCloseHook(fn func(*Client)) {
	if fn == nil {
		return
	}
	c.hookMu.Lock()
	c.closeHooks = append(c.closeHooks, fn)
	c.hookMu.Unlock()
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
		_ = c.conn.Close()
		c.invokeCloseHooks()
	})
}

func (c *Client) invokeCloseHooks() {
	c.hookMu.Lock()
	hooks := append([]func(*Client){}, c.closeHooks...)
	c.closeHooks = nil
	c.hookMu.Unlock()

	for _, hook := range hooks {
		func(h func(*Client)) {
			defer func() {
				if r := recover(); r != nil {
					slog.Warn("ws close hook panic", slog.String("connId", c.id), slog.Any("error", r))
				}
			}()
			h(c)
		}(hook)
	}
}

// SendMessage queues msg for this connection only. Used for error frames
// and pongs; room-wide traffic goes through the hub.
func (c *Client) SendMessage(msg *domain.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("ws marshal error", slog.String("connId", c.id), slog.Any("error", err))
		return
	}
	attached, queued := c.hub.queueTo(c, data)
	if attached && !queued {
		slog.Warn("ws send buffer full", slog.String("connId", c.id))
		go c.hub.DetachClient(c)
	}
}

func (c *Client) WritePump() {
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Warn("ws write error", slog.String("connId", c.id), slog.Any("error", err))
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				slog.Warn("ws ping error", slog.String("connId", c.id), slog.Any("error", err))
				return
			}
		}
	}
}

// ReadPump decodes inbound frames and feeds them to the command processor
// synchronously, so frames from one connection are handled in arrival
// order. Returning detaches the client, which is what turns a dropped
// connection into a leave.
func (c *Client) ReadPump() {
	c.conn.SetReadLimit(1 << 16)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})
	defer c.hub.DetachClient(c)
	for {
		var cmd Command
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("ws read error", slog.String("connId", c.id), slog.Any("error", err))
			}
			return
		}
		if c.commands != nil {
			c.commands.Process(c, cmd)
		}
	}
}
