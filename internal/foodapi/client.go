// Package foodapi is a thin client for the Kalori Makanan food-calorie API.
// The dashboard only needs its health endpoint: key verification is an
// out-of-band liveness check against the backend, not the primary auth path
// (that is the local digest store).
package foodapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HealthCheck is the upstream health response body.
type HealthCheck struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	DatabaseConnected bool   `json:"database_connected"`
}

type Client struct {
	baseURL string
	http    *http.Client
	log     logrus.FieldLogger
}

func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     logger.WithField("component", "foodapi"),
	}
}

// VerifyKey checks a secret against the backend's health endpoint. 200 and
// 429 (rate-limited but authenticated) both count as valid; any other status
// or a transport failure counts as invalid.
func (c *Client) VerifyKey(ctx context.Context, secret string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	req.Header.Set("X-API-Key", secret)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).Warn("Failed to verify API key with backend")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusTooManyRequests
}

// Health fetches the upstream health status for the dashboard panel.
func (c *Client) Health(ctx context.Context) (*HealthCheck, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}

	var health HealthCheck
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	return &health, nil
}
