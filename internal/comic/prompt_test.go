package comic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPagePromptFirstPage(t *testing.T) {
	prompt := BuildPagePrompt("manga", "a cat discovers a portal", nil)

	assert.Contains(t, prompt, "manga style")
	assert.Contains(t, prompt, "a cat discovers a portal")
	assert.NotContains(t, prompt, "continues an ongoing story")
}

func TestBuildPagePromptWithHistory(t *testing.T) {
	history := []PageContext{
		{Prompt: "a cat discovers a portal"},
		{Prompt: "the cat steps through"},
	}
	prompt := BuildPagePrompt("noir", "the cat meets a robot", history)

	assert.Contains(t, prompt, "continues an ongoing story")
	assert.Contains(t, prompt, "Page 1: a cat discovers a portal")
	assert.Contains(t, prompt, "Page 2: the cat steps through")
	assert.Contains(t, prompt, "Draw this page: the cat meets a robot")

	// History must come before the new page instruction.
	assert.Less(t,
		strings.Index(prompt, "Page 1:"),
		strings.Index(prompt, "Draw this page:"))
}
