package togetherai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client is a thin HTTP client for the Together image generation API.
type Client struct {
	apiKey      string
	httpClient  *http.Client
	generateURL string
	logger      *zap.Logger
}

// NewClient builds a client with a server-wide default API key. Individual
// requests may carry their own key, which takes precedence.
func NewClient(apiKey, generateURL string, logger *zap.Logger) *Client {
	return &Client{
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 120 * time.Second}, // generation can take a while
		generateURL: generateURL,
		logger:      logger,
	}
}

// doPostRequest sends one JSON POST and returns the raw body plus the HTTP
// status. Transport and serialization failures come back as errors; HTTP
// error statuses do not, so the caller can classify them.
func (c *Client) doPostRequest(ctx context.Context, url, apiKey string, payload interface{}) ([]byte, int, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("failed to marshal payload", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		c.logger.Warn("failed to create request", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send request", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("failed to read response body", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("API request failed", zap.Int("status", resp.StatusCode), zap.String("body", string(body)))
	} else {
		c.logger.Debug("API request successful", zap.Int("status", resp.StatusCode))
	}
	return body, resp.StatusCode, nil
}
