package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrPageNumberTaken means a concurrent insert won the page number this
// one computed. The caller surfaces it as a retryable conflict.
var ErrPageNumberTaken = errors.New("page number already taken for this story")

// PageStore owns reads and writes of the pages table.
type PageStore struct {
	db *gorm.DB
}

func NewPageStore(db *gorm.DB) *PageStore {
	return &PageStore{db: db}
}

// Create inserts a page row. The (story_id, page_number) uniqueness
// constraint closes the read-then-write race on page numbering; a
// violation comes back as ErrPageNumberTaken.
func (p *PageStore) Create(page *Page) error {
	if err := p.db.Create(page).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrPageNumberTaken
		}
		return fmt.Errorf("failed to create page: %w", err)
	}
	return nil
}

// NextPageNumber computes max(page_number)+1 for the story, or 1 when no
// pages exist yet.
func (p *PageStore) NextPageNumber(storyID string) (int, error) {
	var next int
	err := p.db.Model(&Page{}).
		Where("story_id = ?", storyID).
		Select("COALESCE(MAX(page_number), 0) + 1").
		Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute next page number: %w", err)
	}
	return next, nil
}

// Find loads a page by id, scoped to the story. Returns
// gorm.ErrRecordNotFound when absent or owned by a different story.
func (p *PageStore) Find(storyID, pageID string) (*Page, error) {
	var page Page
	if err := p.db.Where("id = ? AND story_id = ?", pageID, storyID).First(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

// CommitImage records the durable image URL for a page. This is the only
// mutation path for generated_image_url; concurrent commits to the same
// page are last-writer-wins.
func (p *PageStore) CommitImage(pageID, imageURL string) error {
	result := p.db.Model(&Page{}).
		Where("id = ?", pageID).
		Updates(map[string]interface{}{
			"generated_image_url": imageURL,
			"updated_at":          time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to commit page image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CharacterImages aggregates every character reference URL used across the
// story's pages, deduplicated. Order is not significant.
func (p *PageStore) CharacterImages(storyID string) ([]string, error) {
	var lists []StringList
	if err := p.db.Model(&Page{}).
		Where("story_id = ?", storyID).
		Pluck("character_image_urls", &lists).Error; err != nil {
		return nil, fmt.Errorf("failed to load character images: %w", err)
	}

	seen := make(map[string]struct{})
	var urls []string
	for _, list := range lists {
		for _, url := range list {
			if _, ok := seen[url]; ok {
				continue
			}
			seen[url] = struct{}{}
			urls = append(urls, url)
		}
	}
	return urls, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// sqlite reports "UNIQUE constraint failed: pages.story_id, pages.page_number"
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
