package format

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

const markdownStyle = "dark"

var (
	renderersMu sync.Mutex
	renderers   = map[int]*glamour.TermRenderer{}
)

func FormatMarkdown(text string) (string, error) {
	return glamour.Render(text, markdownStyle)
}

// FormatMarkdownWidth renders text word-wrapped at width columns. Renderers
// are kept per width since the chat view re-renders on every delta.
func FormatMarkdownWidth(text string, width int) (string, error) {
	if width <= 0 {
		return FormatMarkdown(text)
	}

	renderersMu.Lock()
	defer renderersMu.Unlock()

	renderer, ok := renderers[width]
	if !ok {
		var err error
		renderer, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(markdownStyle),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", err
		}
		renderers[width] = renderer
	}
	return renderer.Render(text)
}
