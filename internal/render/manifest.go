package render

import (
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Entry is one navigation manifest row pairing a document id with its
// rendered artifact file name.
type Entry struct {
	ID   string
	File string
}

// Filename maps a document name to its artifact file name: the name
// lowercased, with anything outside letters, digits, dot, underscore,
// and hyphen replaced by a hyphen, plus the .md extension.
func Filename(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "index.md"
	}
	return b.String() + ".md"
}

// Manifest renders the YAML navigation artifact: the site title plus
// nav entries in the given order, each a single-entry id-to-file map.
func Manifest(title string, entries []Entry) ([]byte, error) {
	nav := make([]map[string]string, len(entries))
	for i, e := range entries {
		nav[i] = map[string]string{e.ID: e.File}
	}
	manifest := struct {
		Site string              `yaml:"site"`
		Nav  []map[string]string `yaml:"nav"`
	}{Site: title, Nav: nav}

	out, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("render: manifest: %w", err)
	}
	return out, nil
}
