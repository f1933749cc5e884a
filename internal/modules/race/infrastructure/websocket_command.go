package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"codeDuelWs/internal/modules/race/domain"
)

// Command is the inbound frame envelope.
type Command struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (c Command) eventKey() string {
	return strings.ToLower(strings.TrimSpace(c.Event))
}

type CommandHandler func(ctx context.Context, client *Client, cmd Command)

// CommandProcessor routes inbound frames to their registered handlers.
// Handlers run on the connection's read loop: frames from one connection
// are processed strictly in order. Unknown events earn the sender an error
// frame and nothing else.
type CommandProcessor struct {
	handlers map[string]CommandHandler
}

func NewCommandProcessor() *CommandProcessor {
	p := &CommandProcessor{handlers: make(map[string]CommandHandler)}
	p.Register(domain.EventPing, handlePing)
	return p
}

func (p *CommandProcessor) Register(event string, handler CommandHandler) {
	if handler == nil {
		return
	}
	key := strings.ToLower(strings.TrimSpace(event))
	if key == "" {
		return
	}
	p.handlers[key] = handler
}

func (p *CommandProcessor) Process(client *Client, cmd Command) {
	if client == nil {
		return
	}
	event := cmd.eventKey()
	if event == "" {
		return
	}
	if handler, ok := p.handlers[event]; ok {
		handler(context.Background(), client, cmd)
		return
	}
	slog.Debug("ws unknown event", slog.String("connId", client.id), slog.String("event", event))
	client.SendMessage(domain.BuildError("unsupported event: "+event, time.Now()))
}

func handlePing(_ context.Context, client *Client, _ Command) {
	client.SendMessage(domain.BuildPong(time.Now()))
}
