// File: services/notification/push.go
package notification

import (
	"context"
	"fmt"

	"clinicore/models"
	"clinicore/utils"

	"firebase.google.com/go/v4/messaging"
)

// PushTransport sends FCM push notifications.
type PushTransport struct {
	client *messaging.Client
}

// NewPushTransport uses the shared Firebase messaging client.
func NewPushTransport() *PushTransport {
	return &PushTransport{client: utils.FCMClient}
}

func (t *PushTransport) Channel() models.Channel { return models.ChannelPush }

func (t *PushTransport) Send(ctx context.Context, msg *Message) error {
	if t.client == nil {
		return fmt.Errorf("fcm client is not initialized")
	}
	if msg.User.FCMToken == "" {
		return fmt.Errorf("user %s has no device token", msg.User.ID)
	}

	fcmMsg := &messaging.Message{
		Token: msg.User.FCMToken,
		Notification: &messaging.Notification{
			Title: msg.Subject,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "appointment_reminders",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	if _, err := t.client.Send(ctx, fcmMsg); err != nil {
		return fmt.Errorf("fcm send failed: %w", err)
	}
	return nil
}
