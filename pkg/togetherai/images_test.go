package togetherai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("default-key", srv.URL, zap.NewNop())
}

func TestGenerateImageSuccess(t *testing.T) {
	var gotPayload generatePayload
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"url": "https://transient.test/out.jpg"}},
		})
	})

	url, err := client.GenerateImage(context.Background(), ImageRequest{
		Model:           "google/flash-image-2.5",
		Prompt:          "a panel",
		Width:           864,
		Height:          1184,
		Temperature:     0.1,
		ReferenceImages: []string{"ref-1.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://transient.test/out.jpg", url)

	assert.Equal(t, "Bearer default-key", gotAuth)
	assert.Equal(t, "google/flash-image-2.5", gotPayload.Model)
	assert.Equal(t, 864, gotPayload.Width)
	assert.Equal(t, 1184, gotPayload.Height)
	assert.Equal(t, []string{"ref-1.jpg"}, gotPayload.ReferenceImages)
}

func TestGenerateImagePerRequestKeyWins(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"url": "u"}},
		})
	})

	_, err := client.GenerateImage(context.Background(), ImageRequest{
		Prompt: "p", APIKey: "caller-key",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer caller-key", gotAuth)
}

func TestGenerateImageCreditExhausted(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"no credits"}}`))
	})

	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "p"})
	assert.ErrorIs(t, err, ErrCreditExhausted)
}

func TestGenerateImageAPIErrorKeepsStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"model overloaded","type":"overloaded_error"}}`))
	})

	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "p"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "model overloaded", apiErr.Message)
}

func TestGenerateImageAPIErrorNonJSONBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream gateway timeout"))
	})

	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "p"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream gateway timeout", apiErr.Message)
}

func TestGenerateImageEmptyResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []map[string]string{}})
	})

	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "p"})
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestGenerateImageMissingURLIsEmptyResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"url": ""}},
		})
	})

	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "p"})
	assert.ErrorIs(t, err, ErrNoImage)
}
