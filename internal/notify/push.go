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

// PushClient sends push notifications through a webhook relay.
type PushClient struct {
	webhookURL string
	enabled    bool
	httpClient *http.Client
	log        *logger.Logger
}

// NewPushClient creates a new push notification client.
func NewPushClient(cfg *config.PushConfig, log *logger.Logger) *PushClient {
	return &PushClient{
		webhookURL: cfg.WebhookURL,
		enabled:    cfg.Enabled,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

type pushPayload struct {
	UserID uint   `json:"user_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Send delivers a push notification to a user's registered devices.
func (c *PushClient) Send(ctx context.Context, userID uint, title, body string) error {
	if !c.enabled {
		c.log.Debug().Msg("Push sender is disabled, skipping notification")
		return nil
	}

	payload, err := json.Marshal(pushPayload{UserID: userID, Title: title, Body: body})
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("push relay returned status %d", resp.StatusCode)
	}

	return nil
}

// SendLevelUp notifies a user that they unlocked a new level.
func (c *PushClient) SendLevelUp(ctx context.Context, userID uint, levelName string) error {
	return c.Send(ctx, userID, "Level up!", fmt.Sprintf("You reached %s. Keep the streak going!", levelName))
}
