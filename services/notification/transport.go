// File: services/notification/transport.go
package notification

import (
	"context"

	"clinicore/models"
)

// Message is the channel-agnostic payload handed to a transport. The
// transport picks the contact detail it needs from the user record.
type Message struct {
	User    *models.User
	Subject string
	Body    string
	Data    map[string]string
}

// Transport delivers one message on one channel. Implementations must
// respect ctx cancellation; the dispatcher bounds every send with a timeout.
type Transport interface {
	Channel() models.Channel
	Send(ctx context.Context, msg *Message) error
}
