package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	return db
}

func seedStory(t *testing.T, db *gorm.DB, slug, userID string) Story {
	t.Helper()
	story := Story{
		ID: uuid.NewString(), Slug: slug, Title: "t", Style: "manga",
		UserID: userID, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, NewStoryStore(db).Create(&story))
	return story
}

func newPage(storyID string, number int) *Page {
	return &Page{
		ID: uuid.NewString(), StoryID: storyID, PageNumber: number,
		Prompt: "p", CharacterImageURLs: StringList{},
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
}

func TestNextPageNumber(t *testing.T) {
	db := newTestDB(t)
	pages := NewPageStore(db)
	story := seedStory(t, db, "numbering", "u1")

	next, err := pages.NextPageNumber(story.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	require.NoError(t, pages.Create(newPage(story.ID, 1)))
	require.NoError(t, pages.Create(newPage(story.ID, 2)))

	next, err = pages.NextPageNumber(story.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, next)
}

func TestDuplicatePageNumberIsConflict(t *testing.T) {
	db := newTestDB(t)
	pages := NewPageStore(db)
	story := seedStory(t, db, "conflict", "u1")

	require.NoError(t, pages.Create(newPage(story.ID, 1)))

	// A concurrent append that computed the same number loses at insert.
	err := pages.Create(newPage(story.ID, 1))
	assert.ErrorIs(t, err, ErrPageNumberTaken)

	var count int64
	require.NoError(t, db.Model(&Page{}).Where("story_id = ?", story.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSamePageNumberAllowedAcrossStories(t *testing.T) {
	db := newTestDB(t)
	pages := NewPageStore(db)
	a := seedStory(t, db, "story-a", "u1")
	b := seedStory(t, db, "story-b", "u1")

	require.NoError(t, pages.Create(newPage(a.ID, 1)))
	require.NoError(t, pages.Create(newPage(b.ID, 1)))
}

func TestCommitImageUpdatesOnlyTarget(t *testing.T) {
	db := newTestDB(t)
	pages := NewPageStore(db)
	story := seedStory(t, db, "commit", "u1")

	p1 := newPage(story.ID, 1)
	p2 := newPage(story.ID, 2)
	require.NoError(t, pages.Create(p1))
	require.NoError(t, pages.Create(p2))

	require.NoError(t, pages.CommitImage(p1.ID, "https://cdn.test/one.jpg"))

	got1, err := pages.Find(story.ID, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/one.jpg", got1.GeneratedImageURL)
	assert.True(t, got1.UpdatedAt.After(p1.UpdatedAt) || got1.UpdatedAt.Equal(p1.UpdatedAt))

	got2, err := pages.Find(story.ID, p2.ID)
	require.NoError(t, err)
	assert.Empty(t, got2.GeneratedImageURL)
}

func TestCommitImageUnknownPage(t *testing.T) {
	db := newTestDB(t)
	pages := NewPageStore(db)

	err := pages.CommitImage(uuid.NewString(), "url")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindScopedToStory(t *testing.T) {
	db := newTestDB(t)
	pages := NewPageStore(db)
	a := seedStory(t, db, "scope-a", "u1")
	b := seedStory(t, db, "scope-b", "u1")

	p := newPage(a.ID, 1)
	require.NoError(t, pages.Create(p))

	_, err := pages.Find(b.ID, p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCharacterImagesDeduplicates(t *testing.T) {
	db := newTestDB(t)
	pages := NewPageStore(db)
	story := seedStory(t, db, "chars", "u1")

	p1 := newPage(story.ID, 1)
	p1.CharacterImageURLs = StringList{"a.png", "b.png"}
	p2 := newPage(story.ID, 2)
	p2.CharacterImageURLs = StringList{"b.png", "c.png"}
	require.NoError(t, pages.Create(p1))
	require.NoError(t, pages.Create(p2))

	urls, err := pages.CharacterImages(story.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.png", "b.png", "c.png"}, urls)
}
