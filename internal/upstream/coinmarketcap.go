// Package upstream talks to the external market-data provider. The
// provider credential lives here, server-side only.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/coindeck/pkg/config"
)

// ErrMissingAPIKey is returned before any outbound call is attempted
// when the provider credential is not configured.
var ErrMissingAPIKey = errors.New("upstream API key is not configured")

const listingsPath = "/v1/cryptocurrency/listings/latest"

// Client handles CoinMarketCap listings API interactions
type Client struct {
	httpClient *http.Client
	cfg        *config.UpstreamConfig
	logger     *logrus.Entry
}

// NewClient creates a new market-data provider client
func NewClient(cfg *config.UpstreamConfig, logger *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cfg:    cfg,
		logger: logger.WithField("component", "upstream"),
	}
}

// Listings issues exactly one GET to the provider's listings endpoint
// and returns the raw response body. No retry is attempted; a failed
// call is reported to the caller as-is.
func (c *Client) Listings(ctx context.Context) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	endpoint := fmt.Sprintf("%s%s", c.cfg.BaseURL, listingsPath)
	params := url.Values{}
	params.Add("start", strconv.Itoa(c.cfg.Start))
	params.Add("limit", strconv.Itoa(c.cfg.Limit))
	params.Add("convert", c.cfg.Convert)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-CMC_PRO_API_KEY", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"bytes":    len(body),
		"duration": time.Since(start),
	}).Debug("Fetched provider listings")

	return body, nil
}
