package comic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/panelforge/panelforge/internal/storage"
)

func aggregateWithPages(pages ...storage.Page) *storage.StoryAggregate {
	return &storage.StoryAggregate{
		Story: storage.Story{ID: "story-1", Slug: "test-story", Style: "manga", UserID: "user-1"},
		Pages: pages,
	}
}

func TestBuildContextFirstPageHasNoAnchor(t *testing.T) {
	ctx := BuildContext(aggregateWithPages(), 1, []string{"char-a.png"})

	assert.Equal(t, []string{"char-a.png"}, ctx.ReferenceImages)
	assert.Empty(t, ctx.History)
}

func TestBuildContextAnchorsOnPredecessor(t *testing.T) {
	agg := aggregateWithPages(
		storage.Page{ID: "p1", PageNumber: 1, Prompt: "opening", GeneratedImageURL: "img-1.jpg"},
		storage.Page{ID: "p2", PageNumber: 2, Prompt: "middle", GeneratedImageURL: "img-2.jpg"},
	)

	ctx := BuildContext(agg, 3, []string{"char-a.png", "char-b.png"})

	// The continuity anchor comes first, then the user's characters in order.
	assert.Equal(t, []string{"img-2.jpg", "char-a.png", "char-b.png"}, ctx.ReferenceImages)
}

func TestBuildContextRedrawAnchorsOnPageBefore(t *testing.T) {
	agg := aggregateWithPages(
		storage.Page{ID: "p1", PageNumber: 1, GeneratedImageURL: "img-1.jpg"},
		storage.Page{ID: "p2", PageNumber: 2, GeneratedImageURL: "img-2.jpg"},
		storage.Page{ID: "p3", PageNumber: 3, GeneratedImageURL: "img-3.jpg"},
	)

	// Redrawing page 2 anchors on page 1, not on the page being redrawn.
	ctx := BuildContext(agg, 2, nil)
	assert.Equal(t, []string{"img-1.jpg"}, ctx.ReferenceImages)
}

func TestBuildContextOmitsAnchorWhenPredecessorHasNoImage(t *testing.T) {
	agg := aggregateWithPages(
		storage.Page{ID: "p1", PageNumber: 1, GeneratedImageURL: ""},
	)

	ctx := BuildContext(agg, 2, []string{"char-a.png"})
	assert.Equal(t, []string{"char-a.png"}, ctx.ReferenceImages)
}

func TestBuildContextOmitsAnchorWhenPredecessorMissing(t *testing.T) {
	agg := aggregateWithPages(
		storage.Page{ID: "p1", PageNumber: 1, GeneratedImageURL: "img-1.jpg"},
	)

	// Degraded story state: no page 4 exists. Proceed without the anchor.
	ctx := BuildContext(agg, 5, nil)
	assert.Empty(t, ctx.ReferenceImages)
}

func TestBuildContextHistoryInPageOrder(t *testing.T) {
	agg := aggregateWithPages(
		storage.Page{ID: "p1", PageNumber: 1, Prompt: "one", CharacterImageURLs: storage.StringList{"a.png"}},
		storage.Page{ID: "p2", PageNumber: 2, Prompt: "two", CharacterImageURLs: storage.StringList{"b.png"}},
	)

	ctx := BuildContext(agg, 3, nil)

	assert.Len(t, ctx.History, 2)
	assert.Equal(t, "one", ctx.History[0].Prompt)
	assert.Equal(t, []string{"a.png"}, ctx.History[0].CharacterImageURLs)
	assert.Equal(t, "two", ctx.History[1].Prompt)
}

func TestBuildContextDoesNotMergeHistoricalCharacters(t *testing.T) {
	agg := aggregateWithPages(
		storage.Page{ID: "p1", PageNumber: 1, GeneratedImageURL: "img-1.jpg",
			CharacterImageURLs: storage.StringList{"old-char.png"}},
	)

	// Only the caller's current selection rides along, never other pages'
	// historical characters.
	ctx := BuildContext(agg, 2, []string{"new-char.png"})
	assert.Equal(t, []string{"img-1.jpg", "new-char.png"}, ctx.ReferenceImages)
}
