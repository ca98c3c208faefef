package comic

import (
	"fmt"
	"strings"
)

// BuildPagePrompt frames the user's prompt for the image model: art style,
// then the story so far for continuation, then the page to draw.
func BuildPagePrompt(style, prompt string, history []PageContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create a single comic book page in %s style.\n", style)

	if len(history) > 0 {
		b.WriteString("This page continues an ongoing story. The story so far, page by page:\n")
		for i, page := range history {
			fmt.Fprintf(&b, "Page %d: %s\n", i+1, page.Prompt)
		}
		b.WriteString("Keep the characters, color palette and drawing style consistent with the previous pages.\n")
	}

	fmt.Fprintf(&b, "Draw this page: %s", prompt)

	return b.String()
}
