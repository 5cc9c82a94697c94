// Package calendar provides the free-busy client used to check therapist
// availability before onsite bookings.
package calendar

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

// AvailabilityResult is the free-busy verdict for a single calendar identity.
type AvailabilityResult struct {
	Email     string `json:"email"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// Checker answers free-busy queries for a set of calendar identities over
// a time range.
type Checker interface {
	CheckAvailability(ctx context.Context, emails []string, start, end time.Time) ([]AvailabilityResult, error)
}

// Client queries the free-busy provider over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new free-busy client.
func NewClient(cfg *config.CalendarConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

type freeBusyRequest struct {
	Emails []string  `json:"emails"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

type freeBusyResponse struct {
	Results []AvailabilityResult `json:"results"`
}

// CheckAvailability queries the provider for each identity's free-busy
// status over [start, end). One result is returned per input email.
func (c *Client) CheckAvailability(ctx context.Context, emails []string, start, end time.Time) ([]AvailabilityResult, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(freeBusyRequest{Emails: emails, Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal free-busy request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/freebusy", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query free-busy provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("free-busy provider returned status %d", resp.StatusCode)
	}

	var body freeBusyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode free-busy response: %w", err)
	}

	c.log.Debug().
		Int("identities", len(emails)).
		Time("start", start).
		Time("end", end).
		Msg("Checked calendar availability")

	return body.Results, nil
}
