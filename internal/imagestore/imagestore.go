package imagestore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StorageError wraps any failure while moving a generated artifact into
// durable storage. The caller must not commit the page when it sees one.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage error: %v", e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// DiskStore materializes transient upstream image URLs into a local
// directory served under a public base URL. The object-store flavor behind
// the directory (bind mount, FUSE, plain disk) is a deployment concern.
type DiskStore struct {
	dir        string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewDiskStore(dir, baseURL string, logger *zap.Logger) *DiskStore {
	return &DiskStore{
		dir:        dir,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

// Persist downloads the transient artifact and writes it under key,
// returning the durable public URL. Keys are timestamp-salted by the
// caller, so re-materializing the same page never overwrites history.
func (s *DiskStore) Persist(ctx context.Context, remoteURL, key string) (string, error) {
	data, err := s.fetch(ctx, remoteURL)
	if err != nil {
		return "", &StorageError{Err: err}
	}

	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", &StorageError{Err: fmt.Errorf("failed to create artifact directory: %w", err)}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &StorageError{Err: fmt.Errorf("failed to write artifact: %w", err)}
	}

	publicURL := s.baseURL + "/" + key
	s.logger.Info("Artifact persisted",
		zap.String("key", key),
		zap.Int("size_bytes", len(data)),
		zap.String("url", publicURL))
	return publicURL, nil
}

func (s *DiskStore) fetch(ctx context.Context, remoteURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artifact fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("artifact fetch returned empty body")
	}
	return data, nil
}

// PageKey builds the durable storage key for one materialization. The
// millisecond timestamp keeps repeated redraws of the same page from
// colliding.
func PageKey(storyID string, pageNumber int, now time.Time) string {
	return fmt.Sprintf("%s/page-%d-%d.jpg", storyID, pageNumber, now.UnixMilli())
}
