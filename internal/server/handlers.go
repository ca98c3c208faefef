package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/panelforge/panelforge/internal/comic"
	"github.com/panelforge/panelforge/internal/imagestore"
	"github.com/panelforge/panelforge/internal/storage"
	"github.com/panelforge/panelforge/pkg/togetherai"
)

// Handler holds the JSON API endpoints.
type Handler struct {
	svc    *comic.Service
	logger *zap.Logger
}

type pageRequestBody struct {
	StoryID         string   `json:"storyId"`
	PageID          string   `json:"pageId"`
	Prompt          string   `json:"prompt"`
	CharacterImages []string `json:"characterImages"`
}

type comicRequestBody struct {
	Title           string   `json:"title"`
	Style           string   `json:"style"`
	Prompt          string   `json:"prompt"`
	CharacterImages []string `json:"characterImages"`
}

// GeneratePage handles POST /api/pages. pageId present means redraw the
// page in place; absent means append a new page.
func (h *Handler) GeneratePage(c *gin.Context) {
	var body pageRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if body.StoryID == "" || body.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: storyId and prompt"})
		return
	}

	result, err := h.svc.GeneratePage(c.Request.Context(), c.GetString(userIDKey), comic.PageRequest{
		StorySlug:       body.StoryID,
		PageID:          body.PageID,
		Prompt:          body.Prompt,
		CharacterImages: body.CharacterImages,
		APIKey:          c.GetHeader("X-API-Key"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateComic handles POST /api/comics: new story plus its first page.
func (h *Handler) CreateComic(c *gin.Context) {
	var body comicRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if body.Prompt == "" || body.Style == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: prompt and style"})
		return
	}

	result, err := h.svc.CreateComic(c.Request.Context(), c.GetString(userIDKey), comic.ComicRequest{
		Title:           body.Title,
		Style:           body.Style,
		Prompt:          body.Prompt,
		CharacterImages: body.CharacterImages,
		APIKey:          c.GetHeader("X-API-Key"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListStories handles GET /api/stories.
func (h *Handler) ListStories(c *gin.Context) {
	stories, err := h.svc.ListStories(c.GetString(userIDKey))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

// CharacterGallery handles GET /api/stories/:slug/characters.
func (h *Handler) CharacterGallery(c *gin.Context) {
	urls, err := h.svc.CharacterGallery(c.GetString(userIDKey), c.Param("slug"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if urls == nil {
		urls = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"characterImages": urls})
}

// writeError maps the error taxonomy onto HTTP responses. Generation-path
// failures have already left the page untouched by the time they get here.
func (h *Handler) writeError(c *gin.Context, err error) {
	var quotaErr *comic.QuotaExceededError
	var apiErr *togetherai.APIError
	var storageErr *imagestore.StorageError

	switch {
	case errors.Is(err, comic.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})

	case errors.Is(err, comic.ErrStoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})

	case errors.Is(err, comic.ErrPageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})

	case errors.Is(err, comic.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})

	case errors.As(err, &quotaErr):
		days := int(math.Ceil(time.Until(quotaErr.ResetAt).Hours() / 24))
		if days < 1 {
			days = 1
		}
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf(
				"Free tier limit reached. You can generate 1 comic per week. Try again in %d day(s), or provide your own API key.",
				days),
			"resetDate":     quotaErr.ResetAt.UTC().Format(time.RFC3339),
			"isRateLimited": true,
		})

	case errors.Is(err, togetherai.ErrCreditExhausted):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":     "Insufficient API credits.",
			"errorType": "credit_limit",
		})

	case errors.As(err, &apiErr):
		// Propagate the upstream status verbatim.
		c.JSON(apiErr.StatusCode, gin.H{
			"error":     apiErr.Message,
			"errorType": "api_error",
		})

	case errors.Is(err, togetherai.ErrNoImage):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No image URL in response"})

	case errors.Is(err, storage.ErrPageNumberTaken):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Another page was added concurrently, please retry",
			"retryable": true,
		})

	case errors.As(err, &storageErr):
		h.logger.Error("Artifact materialization failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store generated image"})

	default:
		h.logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Internal server error: %v", err)})
	}
}
