// File: services/notification/email.go
package notification

import (
	"context"
	"fmt"

	"clinicore/config"
	"clinicore/models"

	"gopkg.in/gomail.v2"
)

// EmailTransport sends reminder emails over SMTP.
type EmailTransport struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailTransport builds the SMTP transport from configuration.
func NewEmailTransport() *EmailTransport {
	cfg := config.AppConfig
	return &EmailTransport{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

func (t *EmailTransport) Channel() models.Channel { return models.ChannelEmail }

// Send delivers the message over SMTP. The dialer has no context support,
// so the dial-and-send runs in a goroutine and the context races it.
func (t *EmailTransport) Send(ctx context.Context, msg *Message) error {
	if msg.User.Email == "" {
		return fmt.Errorf("user %s has no email address", msg.User.ID)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", t.from)
	m.SetHeader("To", msg.User.Email)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	done := make(chan error, 1)
	go func() {
		done <- t.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
