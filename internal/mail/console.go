package mail

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Console logs messages instead of sending them and keeps a copy.
type Console struct {
	log *zap.Logger

	mu   sync.Mutex
	sent []Message
}

func NewConsole(log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	return &Console{log: log}
}

func (c *Console) Send(_ context.Context, msg Message) error {
	if msg.To.Address == "" {
		return ErrNoRecipient
	}
	c.log.Info("email",
		zap.String("to", msg.To.String()),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text))
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()
	return nil
}

// Sent returns the messages sent so far.
func (c *Console) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.sent...)
}
