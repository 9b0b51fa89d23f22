package notify

import (
	"context"
	"log"
)

// LogNotifier writes messages to the process log instead of sending them.
// It backs dry runs when no chat token is configured.
type LogNotifier struct{}

// Send logs msg
func (LogNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("notify(dry-run): to=%d kind=%s text=%q", msg.Recipient, msg.Kind, msg.Text)
	return nil
}
