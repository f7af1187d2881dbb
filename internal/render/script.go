package render

import (
	"context"

	"github.com/jward/refdoc/internal/model"
	"github.com/jward/refdoc/internal/script"
)

// Script renders documents by evaluating a Risor render script.
type Script struct {
	rt     *script.Runtime
	source string
}

var _ Renderer = (*Script)(nil)

// NewScript returns a renderer that evaluates source once per document
// on the given runtime.
func NewScript(rt *script.Runtime, source string) *Script {
	return &Script{rt: rt, source: source}
}

// Render evaluates the script against doc and returns its page string.
func (s *Script) Render(ctx context.Context, doc model.Document) (string, error) {
	return s.rt.Render(ctx, s.source, doc)
}
