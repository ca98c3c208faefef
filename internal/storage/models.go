package storage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Story is one comic owned by a single user. Created once by the comic
// creation flow; pages hang off it.
type Story struct {
	ID        string
	Slug      string
	Title     string
	Style     string
	UserID    string
	CreatedAt time.Time
}

func (Story) TableName() string { return "stories" }

// Page is a single comic page. GeneratedImageURL stays empty between the
// generation request and the post-materialization commit; readers treat an
// empty value as "in progress".
type Page struct {
	ID                 string
	StoryID            string
	PageNumber         int
	Prompt             string
	CharacterImageURLs StringList `gorm:"column:character_image_urls"`
	GeneratedImageURL  string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Page) TableName() string { return "pages" }

// GenerationRecord is one consumed quota token for a user without their
// own upstream credential.
type GenerationRecord struct {
	ID        int64 `gorm:"primaryKey"`
	UserID    string
	CreatedAt time.Time
}

func (GenerationRecord) TableName() string { return "generation_records" }

// StringList stores an ordered list of URLs as a JSON text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(data, l)
}

// StorySummary is the GET /stories projection: page count is the highest
// page number seen, cover image is page 1's generated image.
type StorySummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	CreatedAt  time.Time `json:"createdAt"`
	PageCount  int       `json:"pageCount"`
	CoverImage string    `json:"coverImage,omitempty"`
}

// StoryAggregate is a story plus all of its pages ordered by page number.
// Request handling loads it once and threads it through; anything that
// must not trust a stale snapshot re-loads it.
type StoryAggregate struct {
	Story Story
	Pages []Page
}

// PageByNumber returns the page with the given number, or nil.
func (a *StoryAggregate) PageByNumber(n int) *Page {
	for i := range a.Pages {
		if a.Pages[i].PageNumber == n {
			return &a.Pages[i]
		}
	}
	return nil
}

// PageByID returns the page with the given id, or nil.
func (a *StoryAggregate) PageByID(id string) *Page {
	for i := range a.Pages {
		if a.Pages[i].ID == id {
			return &a.Pages[i]
		}
	}
	return nil
}
