// File: services/notification/inapp.go
package notification

import (
	"context"
	"time"

	inboxRepo "clinicore/database/repository/inbox"
	"clinicore/models"

	"github.com/google/uuid"
)

// InAppTransport "delivers" by writing to the user's notification inbox.
// It cannot fail for contact-detail reasons, which makes in-app the most
// reliable channel.
type InAppTransport struct {
	inbox inboxRepo.InboxRepository
}

// NewInAppTransport wires the inbox-backed transport.
func NewInAppTransport(inbox inboxRepo.InboxRepository) *InAppTransport {
	return &InAppTransport{inbox: inbox}
}

func (t *InAppTransport) Channel() models.Channel { return models.ChannelInApp }

func (t *InAppTransport) Send(ctx context.Context, msg *Message) error {
	data := make(map[string]any, len(msg.Data))
	for k, v := range msg.Data {
		data[k] = v
	}
	return t.inbox.Create(ctx, &models.InAppNotification{
		ID:        uuid.NewString(),
		UserID:    msg.User.ID,
		Type:      "appointment_reminder",
		Title:     msg.Subject,
		Body:      msg.Body,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	})
}
