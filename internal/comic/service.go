package comic

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/panelforge/panelforge/internal/config"
	"github.com/panelforge/panelforge/internal/imagestore"
	"github.com/panelforge/panelforge/internal/quota"
	"github.com/panelforge/panelforge/internal/storage"
	"github.com/panelforge/panelforge/pkg/togetherai"
)

// GenerationGateway is the external image-synthesis capability. One call,
// one attempt; error classification happens in the gateway package.
type GenerationGateway interface {
	GenerateImage(ctx context.Context, req togetherai.ImageRequest) (string, error)
}

// ArtifactStore moves a transient upstream artifact into durable storage.
type ArtifactStore interface {
	Persist(ctx context.Context, remoteURL, key string) (string, error)
}

// QuotaGate decides whether a credential-less user may generate.
type QuotaGate interface {
	Check(userID string) (quota.Result, error)
}

// Service orchestrates the page generation lifecycle: quota gate, page
// numbering, continuity context, gateway call, materialization, commit.
type Service struct {
	stories     *storage.StoryStore
	pages       *storage.PageStore
	gate        QuotaGate
	gateway     GenerationGateway
	artifacts   ArtifactStore
	model       config.ModelConfig
	temperature float64
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(
	stories *storage.StoryStore,
	pages *storage.PageStore,
	gate QuotaGate,
	gateway GenerationGateway,
	artifacts ArtifactStore,
	model config.ModelConfig,
	temperature float64,
	logger *zap.Logger,
) *Service {
	return &Service{
		stories:     stories,
		pages:       pages,
		gate:        gate,
		gateway:     gateway,
		artifacts:   artifacts,
		model:       model,
		temperature: temperature,
		logger:      logger,
		now:         time.Now,
	}
}

// PageRequest asks for one page generation. PageID set means redraw the
// existing page in place; unset means append a new page. APIKey, when
// present, is the caller's own upstream credential and bypasses the quota
// gate.
type PageRequest struct {
	StorySlug       string
	PageID          string
	Prompt          string
	CharacterImages []string
	APIKey          string
}

// PageResult reports the committed outcome of a generation.
type PageResult struct {
	PageID     string `json:"pageId"`
	PageNumber int    `json:"pageNumber"`
	ImageURL   string `json:"imageUrl"`
}

// ComicRequest creates a new story and generates its first page.
type ComicRequest struct {
	Title           string
	Style           string
	Prompt          string
	CharacterImages []string
	APIKey          string
}

// ComicResult is ComicRequest's outcome.
type ComicResult struct {
	StorySlug string `json:"storySlug"`
	PageResult
}

// GeneratePage runs the full add-or-redraw flow. Every failure after the
// quota gate leaves the target page's persisted image exactly as it was:
// the image URL is only written by the final commit, after the artifact is
// durable.
func (s *Service) GeneratePage(ctx context.Context, userID string, req PageRequest) (*PageResult, error) {
	if req.StorySlug == "" || strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrMissingFields
	}

	agg, err := s.stories.GetAggregate(req.StorySlug)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrStoryNotFound
		}
		return nil, err
	}

	if agg.Story.UserID != userID {
		return nil, ErrNotOwner
	}

	// Bring-your-own-key requests skip the quota entirely. The gate
	// consumes a token at check time, before any page row exists, so a
	// denial leaves no residue.
	if req.APIKey == "" {
		result, err := s.gate.Check(userID)
		if err != nil {
			return nil, err
		}
		if !result.Allowed {
			return nil, &QuotaExceededError{ResetAt: result.ResetAt}
		}
	}

	var page *storage.Page
	isRedraw := req.PageID != ""

	if isRedraw {
		page = agg.PageByID(req.PageID)
		if page == nil {
			return nil, ErrPageNotFound
		}
		// The predecessor may have been redrawn since the aggregate was
		// loaded; re-read before trusting it as the continuity anchor.
		agg, err = s.stories.GetAggregate(req.StorySlug)
		if err != nil {
			if storage.IsNotFound(err) {
				return nil, ErrStoryNotFound
			}
			return nil, err
		}
	} else {
		number, err := s.pages.NextPageNumber(agg.Story.ID)
		if err != nil {
			return nil, err
		}
		page = &storage.Page{
			ID:                 uuid.NewString(),
			StoryID:            agg.Story.ID,
			PageNumber:         number,
			Prompt:             req.Prompt,
			CharacterImageURLs: append(storage.StringList{}, req.CharacterImages...),
			CreatedAt:          s.now().UTC(),
			UpdatedAt:          s.now().UTC(),
		}
		// A concurrent append may win the number; the unique constraint
		// surfaces that as ErrPageNumberTaken, retryable by the client.
		if err := s.pages.Create(page); err != nil {
			return nil, err
		}
	}

	genCtx := BuildContext(agg, page.PageNumber, req.CharacterImages)
	fullPrompt := BuildPagePrompt(agg.Story.Style, req.Prompt, genCtx.History)

	s.logger.Info("Generating page",
		zap.String("story_id", agg.Story.ID),
		zap.Int("page_number", page.PageNumber),
		zap.Bool("redraw", isRedraw),
		zap.Int("reference_images", len(genCtx.ReferenceImages)))

	remoteURL, err := s.gateway.GenerateImage(ctx, togetherai.ImageRequest{
		Model:           s.model.Model,
		Prompt:          fullPrompt,
		Width:           s.model.Width,
		Height:          s.model.Height,
		Temperature:     s.temperature,
		ReferenceImages: genCtx.ReferenceImages,
		APIKey:          req.APIKey,
	})
	if err != nil {
		return nil, err
	}

	key := imagestore.PageKey(agg.Story.ID, page.PageNumber, s.now())
	durableURL, err := s.artifacts.Persist(ctx, remoteURL, key)
	if err != nil {
		// Materialization failed: skip the commit so the page keeps its
		// prior image reference (or none).
		return nil, err
	}

	if err := s.pages.CommitImage(page.ID, durableURL); err != nil {
		return nil, err
	}

	return &PageResult{
		PageID:     page.ID,
		PageNumber: page.PageNumber,
		ImageURL:   durableURL,
	}, nil
}

// CreateComic inserts a new story under a fresh unique slug, then runs the
// append path for page 1.
func (s *Service) CreateComic(ctx context.Context, userID string, req ComicRequest) (*ComicResult, error) {
	if strings.TrimSpace(req.Prompt) == "" || strings.TrimSpace(req.Style) == "" {
		return nil, ErrMissingFields
	}

	slug, err := UniqueSlug(s.stories.SlugExists)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = deriveTitle(req.Prompt)
	}

	story := &storage.Story{
		ID:        uuid.NewString(),
		Slug:      slug,
		Title:     title,
		Style:     req.Style,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.stories.Create(story); err != nil {
		return nil, err
	}

	s.logger.Info("Story created",
		zap.String("story_id", story.ID),
		zap.String("slug", slug),
		zap.String("user_id", userID))

	pageResult, err := s.GeneratePage(ctx, userID, PageRequest{
		StorySlug:       slug,
		Prompt:          req.Prompt,
		CharacterImages: req.CharacterImages,
		APIKey:          req.APIKey,
	})
	if err != nil {
		return nil, err
	}

	return &ComicResult{StorySlug: slug, PageResult: *pageResult}, nil
}

// ListStories returns the caller's stories with derived page counts and
// cover images.
func (s *Service) ListStories(userID string) ([]storage.StorySummary, error) {
	return s.stories.ListWithCovers(userID)
}

// CharacterGallery returns every character reference used across the
// story's pages, deduplicated.
func (s *Service) CharacterGallery(userID, slug string) ([]string, error) {
	agg, err := s.stories.GetAggregate(slug)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrStoryNotFound
		}
		return nil, err
	}
	if agg.Story.UserID != userID {
		return nil, ErrNotOwner
	}
	return s.pages.CharacterImages(agg.Story.ID)
}

func deriveTitle(prompt string) string {
	title := strings.TrimSpace(prompt)
	if len(title) > 60 {
		title = strings.TrimSpace(title[:60])
	}
	return title
}
