/*
Package notify is the outbound notification channel (SMS/push/email
behind one interface).

PURPOSE:
  The engine sends offers, verification codes, and results as
  fire-and-forget side effects. Notification is NOT part of the commit
  protocol: a failed send is logged and never rolls back state.

IMPLEMENTATIONS:
  - Console: logs to stdout (dev/tests)
  - AMQP:    publishes JSON events to a topic exchange (amqp.go)
*/
package notify

import (
	"context"
	"log"
)

// Notifier delivers a message to a recipient. Best effort.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, message string) error
}

// =============================================================================
// CONSOLE NOTIFIER - dev/test implementation
// =============================================================================

type Console struct{}

func NewConsole() *Console {
	return &Console{}
}

func (c *Console) Send(_ context.Context, recipient, subject, message string) error {
	log.Printf("[notify] to=%s %s :: %s", recipient, subject, message)
	return nil
}
