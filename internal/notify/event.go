package notify

import (
	"context"

	kafkax "github.com/ariefcatur/go-backoffice/internal/kafka"
	"github.com/google/uuid"
)

const EventNotificationRaised = "NotificationRaised"

type NotificationPayload struct {
	ID       string   `json:"id"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// EventNotifier publishes every notification as an envelope on the
// notifications topic, for whatever front end renders them.
type EventNotifier struct {
	Producer kafkax.Publisher
	Service  string
}

func (n EventNotifier) Notify(ctx context.Context, sev Severity, msg string) {
	if n.Producer == nil {
		return
	}
	id := uuid.NewString()
	env := kafkax.NewEnvelope(EventNotificationRaised, n.Service, id, NotificationPayload{
		ID: id, Severity: sev, Message: msg,
	})
	kafkax.PublishEnvelope(n.Producer, id, env)
}
