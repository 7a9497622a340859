package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kasap-ot/thesis-project/internal/queue"
)

// QueueNotifier publishes notifications for the worker to deliver.
type QueueNotifier struct {
	q   queue.Queue
	now func() time.Time
}

// NewQueueNotifier creates a notifier on top of q.
func NewQueueNotifier(q queue.Queue) *QueueNotifier {
	return &QueueNotifier{q: q, now: time.Now}
}

// Notify stamps the notification with an id and enqueues it.
func (n *QueueNotifier) Notify(ctx context.Context, note Notification) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = n.now().UTC()
	}
	body, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := n.q.Publish(ctx, queue.Message{Type: string(note.Kind), Body: body}); err != nil {
		return fmt.Errorf("publish notification %s: %w", note.ID, err)
	}
	return nil
}

// Decode reads a notification back from a queue message.
func Decode(msg queue.Message) (Notification, error) {
	var note Notification
	if err := json.Unmarshal(msg.Body, &note); err != nil {
		return Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	if note.Kind == "" {
		note.Kind = Kind(msg.Type)
	}
	return note, nil
}
