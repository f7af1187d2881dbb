package highlight

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// langToGrammar maps language names to tree-sitter Language objects.
// Lazily initialized on first call via sync.Once.
var (
	langToGrammar map[string]*sitter.Language
	grammarsOnce  sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		langToGrammar = map[string]*sitter.Language{
			"go":     golang.GetLanguage(),
			"golang": golang.GetLanguage(),
		}
	})
}

// grammarFor returns the tree-sitter grammar for a language name.
func grammarFor(lang string) (*sitter.Language, bool) {
	initGrammars()
	l, ok := langToGrammar[strings.ToLower(lang)]
	return l, ok
}

// Sitter highlights snippets by parsing them with tree-sitter and
// wrapping classified tokens in HTML spans.
type Sitter struct{}

var _ Highlighter = (*Sitter)(nil)

// NewSitter returns a tree-sitter backed highlighter.
func NewSitter() *Sitter {
	return &Sitter{}
}

// Highlight parses src and returns an HTML block with per-token spans.
// A snippet that does not parse cleanly is reported as an error so the
// caller can degrade to plain output.
func (s *Sitter) Highlight(ctx context.Context, src, lang string) (string, error) {
	grammar, ok := grammarFor(lang)
	if !ok {
		return "", fmt.Errorf("highlight: no grammar for language %q", lang)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	// The Go grammar wants a newline-terminated source; without it the
	// tree carries a MISSING node and HasError trips.
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	tree, err := parser.ParseCtx(ctx, nil, []byte(src))
	if err != nil {
		return "", fmt.Errorf("highlight: parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return "", fmt.Errorf("highlight: %s snippet does not parse", lang)
	}

	var b strings.Builder
	b.WriteString(`<pre class="highlight"><code class="language-` + lang + `">`)
	writeSpans(&b, root, []byte(src))
	b.WriteString("</code></pre>")
	return b.String(), nil
}

// writeSpans walks the parse tree and emits one span per classified
// token, preserving the bytes between tokens verbatim.
func writeSpans(b *strings.Builder, root *sitter.Node, src []byte) {
	var last uint32
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.ChildCount() == 0 || atomicNode(n.Type()) {
			start, end := n.StartByte(), n.EndByte()
			if start > last {
				b.WriteString(html.EscapeString(string(src[last:start])))
			}
			if end <= start {
				return
			}
			text := html.EscapeString(string(src[start:end]))
			if class := classFor(n.Type()); class != "" {
				fmt.Fprintf(b, `<span class=%q>%s</span>`, class, text)
			} else {
				b.WriteString(text)
			}
			last = end
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	if int(last) < len(src) {
		b.WriteString(html.EscapeString(string(src[last:])))
	}
}

// atomicNode reports node types emitted as a single span even though
// the grammar gives them children.
func atomicNode(t string) bool {
	switch t {
	case "comment", "interpreted_string_literal", "raw_string_literal", "rune_literal":
		return true
	}
	return false
}

// classFor maps a token node type to a highlight class. Unclassified
// tokens render bare.
func classFor(t string) string {
	switch t {
	case "comment":
		return "c"
	case "interpreted_string_literal", "raw_string_literal", "rune_literal":
		return "s"
	case "int_literal", "float_literal", "imaginary_literal":
		return "m"
	case "type_identifier":
		return "t"
	case "true", "false", "nil", "iota":
		return "v"
	}
	if keywordTokens[t] {
		return "k"
	}
	return ""
}

var keywordTokens = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true,
	"continue": true, "default": true, "defer": true, "else": true,
	"fallthrough": true, "for": true, "func": true, "go": true,
	"goto": true, "if": true, "import": true, "interface": true,
	"map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true,
	"var": true,
}
