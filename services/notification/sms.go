// File: services/notification/sms.go
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"clinicore/config"
	"clinicore/models"
)

// SMSTransport posts messages to the configured HTTP SMS gateway.
type SMSTransport struct {
	client     *http.Client
	gatewayURL string
	apiKey     string
}

// NewSMSTransport builds the gateway client from configuration.
func NewSMSTransport() *SMSTransport {
	return &SMSTransport{
		client:     &http.Client{Timeout: 10 * time.Second},
		gatewayURL: config.AppConfig.SMSGatewayURL,
		apiKey:     config.AppConfig.SMSGatewayKey,
	}
}

func (t *SMSTransport) Channel() models.Channel { return models.ChannelSMS }

func (t *SMSTransport) Send(ctx context.Context, msg *Message) error {
	if t.gatewayURL == "" {
		return fmt.Errorf("sms gateway is not configured")
	}
	if msg.User.Phone == "" {
		return fmt.Errorf("user %s has no phone number", msg.User.ID)
	}

	payload, err := json.Marshal(map[string]string{
		"to":      msg.User.Phone,
		"message": msg.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
