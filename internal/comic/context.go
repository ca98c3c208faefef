package comic

import (
	"github.com/panelforge/panelforge/internal/storage"
)

// PageContext is one prior page's contribution to the narrative history.
type PageContext struct {
	Prompt             string
	CharacterImageURLs []string
}

// GenerationContext is everything the gateway call needs beyond the user's
// prompt: reference images in priority order and the prompt history.
type GenerationContext struct {
	// ReferenceImages start with the continuity anchor (the previous
	// page's generated image) when one exists, followed by the user's
	// character selection in the order supplied.
	ReferenceImages []string
	History         []PageContext
}

// BuildContext assembles the generation context for targetPageNumber from
// a story aggregate. The aggregate must be freshly loaded: for redraws the
// predecessor may itself have been redrawn since any earlier read.
//
// Page 1 has no continuity anchor. For later pages a missing predecessor
// or a predecessor without a generated image simply omits the anchor.
func BuildContext(agg *storage.StoryAggregate, targetPageNumber int, characterImages []string) GenerationContext {
	var refs []string

	if targetPageNumber > 1 {
		if prev := agg.PageByNumber(targetPageNumber - 1); prev != nil && prev.GeneratedImageURL != "" {
			refs = append(refs, prev.GeneratedImageURL)
		}
	}

	refs = append(refs, characterImages...)

	history := make([]PageContext, 0, len(agg.Pages))
	for _, p := range agg.Pages {
		history = append(history, PageContext{
			Prompt:             p.Prompt,
			CharacterImageURLs: p.CharacterImageURLs,
		})
	}

	return GenerationContext{ReferenceImages: refs, History: history}
}
