// Package notify provides outbound SMS and push notification clients.
// Both are fire-and-forget collaborators: their failures never fail the
// primary operation that triggered them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/amanihq/wellbeing-backend/internal/config"
	"github.com/amanihq/wellbeing-backend/pkg/logger"
)

// SMSClient sends verification codes and booking confirmations over an
// SMS gateway webhook.
type SMSClient struct {
	gatewayURL string
	senderID   string
	enabled    bool
	httpClient *http.Client
	log        *logger.Logger
}

// NewSMSClient creates a new SMS client.
func NewSMSClient(cfg *config.SMSConfig, log *logger.Logger) *SMSClient {
	return &SMSClient{
		gatewayURL: cfg.GatewayURL,
		senderID:   cfg.SenderID,
		enabled:    cfg.Enabled,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

type smsPayload struct {
	To       string `json:"to"`
	From     string `json:"from,omitempty"`
	Message  string `json:"message"`
	Channel  string `json:"channel"` // 'sms' or 'whatsapp'
}

// Send delivers a message to a phone number over the given channel.
func (c *SMSClient) Send(ctx context.Context, destination, channel, message string) error {
	if !c.enabled {
		c.log.Debug().Msg("SMS sender is disabled, skipping message")
		return nil
	}

	payload, err := json.Marshal(smsPayload{
		To:      destination,
		From:    c.senderID,
		Message: message,
		Channel: channel,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal SMS payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	c.log.Debug().
		Str("channel", channel).
		Msg("Sent SMS notification")

	return nil
}

// SendBookingConfirmation notifies a user that a phone session was booked.
func (c *SMSClient) SendBookingConfirmation(ctx context.Context, destination, therapistName string) error {
	msg := fmt.Sprintf("Your phone session with %s has been scheduled. They will call you at the agreed time.", therapistName)
	return c.Send(ctx, destination, "sms", msg)
}
