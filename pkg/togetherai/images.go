package togetherai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

var (
	// ErrCreditExhausted means the upstream account has no credits left
	// (HTTP 402). User-actionable: supply a different API key.
	ErrCreditExhausted = errors.New("insufficient API credits")

	// ErrNoImage means the upstream answered successfully but returned no
	// usable image reference.
	ErrNoImage = errors.New("no image URL in response")
)

// APIError is any non-402 upstream API failure. The status code is
// propagated verbatim to HTTP boundaries.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("together API error (status %d): %s", e.StatusCode, e.Message)
}

// ImageRequest describes one generation call. Width and height come from
// the model configuration and are fixed per model, never per request.
type ImageRequest struct {
	Model           string
	Prompt          string
	Width           int
	Height          int
	Temperature     float64
	ReferenceImages []string
	APIKey          string // optional per-request credential, overrides the client default
}

type generatePayload struct {
	Model           string   `json:"model"`
	Prompt          string   `json:"prompt"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	Temperature     float64  `json:"temperature,omitempty"`
	ReferenceImages []string `json:"reference_images,omitempty"`
}

type generateResponse struct {
	Data []imageData `json:"data"`
}

type imageData struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GenerateImage performs exactly one generation attempt and returns the
// transient image URL. No retries: retry policy belongs to the caller.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = c.apiKey
	}

	c.logger.Debug("Submitting image generation request",
		zap.String("model", req.Model),
		zap.Int("width", req.Width),
		zap.Int("height", req.Height),
		zap.Int("reference_images", len(req.ReferenceImages)))

	payload := generatePayload{
		Model:           req.Model,
		Prompt:          req.Prompt,
		Width:           req.Width,
		Height:          req.Height,
		Temperature:     req.Temperature,
		ReferenceImages: req.ReferenceImages,
	}

	body, status, err := c.doPostRequest(ctx, c.generateURL, apiKey, payload)
	if err != nil {
		return "", err
	}

	if status == http.StatusPaymentRequired {
		return "", ErrCreditExhausted
	}
	if status >= 400 {
		msg := string(body)
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return "", &APIError{StatusCode: status, Message: msg}
	}

	var response generateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal generation response: %w, body: %s", err, string(body))
	}

	if len(response.Data) == 0 || response.Data[0].URL == "" {
		return "", ErrNoImage
	}

	return response.Data[0].URL, nil
}
