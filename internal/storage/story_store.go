package storage

import (
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// StoryStore owns reads and writes of the stories table.
type StoryStore struct {
	db *gorm.DB
}

func NewStoryStore(db *gorm.DB) *StoryStore {
	return &StoryStore{db: db}
}

func (s *StoryStore) Create(story *Story) error {
	if err := s.db.Create(story).Error; err != nil {
		return fmt.Errorf("failed to create story: %w", err)
	}
	return nil
}

// SlugExists reports whether a story already uses the slug. Used by the
// slug generator's uniqueness retry loop.
func (s *StoryStore) SlugExists(slug string) (bool, error) {
	var count int64
	if err := s.db.Model(&Story{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}

// GetAggregate loads a story by slug together with its pages in page
// number order. Returns gorm.ErrRecordNotFound when the slug is unknown.
func (s *StoryStore) GetAggregate(slug string) (*StoryAggregate, error) {
	var story Story
	if err := s.db.Where("slug = ?", slug).First(&story).Error; err != nil {
		return nil, err
	}

	var pages []Page
	if err := s.db.Where("story_id = ?", story.ID).Order("page_number ASC").Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("failed to load pages for story %s: %w", story.ID, err)
	}

	return &StoryAggregate{Story: story, Pages: pages}, nil
}

// ListWithCovers returns the user's stories with derived page count (max
// page number seen) and cover image (page 1's generated image).
func (s *StoryStore) ListWithCovers(userID string) ([]StorySummary, error) {
	var stories []Story
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&stories).Error; err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	if len(stories) == 0 {
		return []StorySummary{}, nil
	}

	storyIDs := make([]string, 0, len(stories))
	for _, st := range stories {
		storyIDs = append(storyIDs, st.ID)
	}

	type pageRow struct {
		StoryID           string
		PageNumber        int
		GeneratedImageURL string
	}
	var rows []pageRow
	if err := s.db.Model(&Page{}).
		Select("story_id, page_number, generated_image_url").
		Where("story_id IN ?", storyIDs).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load page summaries: %w", err)
	}

	summaries := make(map[string]*StorySummary, len(stories))
	for _, st := range stories {
		summaries[st.ID] = &StorySummary{
			ID:        st.ID,
			Title:     st.Title,
			Slug:      st.Slug,
			CreatedAt: st.CreatedAt,
		}
	}
	for _, row := range rows {
		summary := summaries[row.StoryID]
		if summary == nil {
			continue
		}
		if row.PageNumber > summary.PageCount {
			summary.PageCount = row.PageNumber
		}
		if row.PageNumber == 1 && row.GeneratedImageURL != "" {
			summary.CoverImage = row.GeneratedImageURL
		}
	}

	out := make([]StorySummary, 0, len(stories))
	for _, st := range stories {
		out = append(out, *summaries[st.ID])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
