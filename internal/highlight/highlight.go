// Package highlight renders source snippets as marked-up blocks for
// embedding in generated pages.
package highlight

import (
	"context"
	"strings"
)

// Highlighter marks up a source snippet for one language. An error
// means the snippet could not be highlighted; callers are expected to
// fall back to unhighlighted output rather than fail the page.
type Highlighter interface {
	Highlight(ctx context.Context, src, lang string) (string, error)
}

// Plain wraps snippets in fenced code blocks without further markup.
// It never fails, which makes it the fallback for every other
// implementation.
type Plain struct{}

var _ Highlighter = Plain{}

func (Plain) Highlight(_ context.Context, src, lang string) (string, error) {
	return Fence(src, lang), nil
}

// Fence wraps src in a fenced code block tagged with lang.
func Fence(src, lang string) string {
	return "```" + lang + "\n" + strings.TrimRight(src, "\n") + "\n```"
}
