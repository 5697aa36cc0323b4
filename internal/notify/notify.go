// Package notify sends templated status emails to reporters and claimants.
package notify

import (
	"context"
	"log/slog"

	"github.com/erazemk/reunite/internal/model"
)

// Message is one outgoing notification.
type Message struct {
	ToEmail   string `json:"to_email"`
	ToName    string `json:"to_name"`
	Subject   string `json:"subject"`
	Body      string `json:"message"`
	ItemTitle string `json:"item_title"`
	SiteLink  string `json:"site_link"`
}

// Notifier delivers messages.
type Notifier interface {
	Send(ctx context.Context, m Message) error
}

// Nop discards every message.
type Nop struct{}

func (Nop) Send(context.Context, Message) error { return nil }

// Log writes messages to the structured log instead of sending them.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Send(ctx context.Context, m Message) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification", "to", m.ToEmail, "subject", m.Subject, "item", m.ItemTitle)
	return nil
}

// Deliver sends each message through n. Messages without a valid recipient
// address are skipped. Failures are logged and do not stop the remaining
// messages; the number of messages sent is returned.
func Deliver(ctx context.Context, n Notifier, msgs ...Message) int {
	if n == nil {
		return 0
	}
	sent := 0
	for _, m := range msgs {
		if !model.ValidEmail(m.ToEmail) {
			slog.Warn("skipping notification with invalid recipient", "to", m.ToEmail, "subject", m.Subject)
			continue
		}
		if err := n.Send(ctx, m); err != nil {
			slog.Error("sending notification", "to", m.ToEmail, "subject", m.Subject, "error", err)
			continue
		}
		sent++
	}
	return sent
}
