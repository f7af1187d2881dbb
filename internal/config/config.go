// Package config loads the YAML run configuration. A file may extend
// a parent file; the chain is merged recursively with child keys
// overriding parent keys, and cycles are rejected.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file name Discover looks for.
const DefaultFileName = "refdoc.yaml"

// Highlight modes accepted by Validate.
const (
	HighlightHTML  = "html"
	HighlightPlain = "plain"
	HighlightOff   = "off"
)

// BuiltinScriptPrefix marks script values resolved from the embedded
// script set instead of from disk.
const BuiltinScriptPrefix = "builtin:"

// Config drives a documentation run.
type Config struct {
	// Extends names a parent config file, relative to this file.
	Extends string `yaml:"extends,omitempty"`
	// Title is the site title written to the navigation manifest.
	Title string `yaml:"title,omitempty"`
	// Module is the directory of the Go module to analyze.
	Module string `yaml:"module,omitempty"`
	// Entry is the package pattern declaring the factory functions,
	// as an import path or a directory relative to Module.
	Entry string `yaml:"entry,omitempty"`
	// Factories are the factory function names to resolve in Entry.
	Factories []string `yaml:"factories,omitempty"`
	// Dirs are the directories to scan for exported factory calls,
	// relative to Module.
	Dirs []string `yaml:"dirs,omitempty"`
	// Output is the directory rendered pages are written to.
	Output string `yaml:"output,omitempty"`
	// BuildFlags are extra flags passed to the build system.
	BuildFlags []string `yaml:"buildFlags,omitempty"`
	// Env are extra KEY=VALUE pairs for the build system environment.
	Env []string `yaml:"env,omitempty"`
	// Tests includes _test.go files in the analysis when set.
	Tests *bool `yaml:"tests,omitempty"`
	// Script selects a Risor render script: a file path, or a
	// builtin: name from the embedded set. Empty uses the built-in
	// markdown renderer.
	Script string `yaml:"script,omitempty"`
	// Highlight selects declaration highlighting: html, plain, or off.
	Highlight string `yaml:"highlight,omitempty"`
}

// Default returns the values used for fields left unset.
func Default() Config {
	return Config{
		Title:     "API Reference",
		Module:    ".",
		Factories: []string{"New"},
		Dirs:      []string{"."},
		Output:    "docs/reference",
		Highlight: HighlightHTML,
	}
}

// Load reads the config file at path and resolves its extends chain.
// Path fields are anchored to the directory of the file that set them,
// so a parent in another directory keeps its meaning after the merge.
func Load(path string) (Config, error) {
	cfg, rootDir, err := load(path, map[string]bool{})
	if err != nil {
		return Config{}, err
	}
	if cfg.Module == "" {
		cfg.Module = rootDir
	}
	return cfg, nil
}

func load(path string, visited map[string]bool) (Config, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Config{}, "", fmt.Errorf("config: resolving %s: %w", path, err)
	}
	if visited[abs] {
		return Config{}, "", fmt.Errorf("config: extends cycle through %s", abs)
	}
	visited[abs] = true

	data, err := os.ReadFile(abs)
	if err != nil {
		return Config{}, "", fmt.Errorf("config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, "", fmt.Errorf("config: parsing %s: %w", abs, err)
	}
	dir := filepath.Dir(abs)
	cfg.resolvePaths(dir)

	if cfg.Extends == "" {
		return cfg, dir, nil
	}
	parentPath := cfg.Extends
	if !filepath.IsAbs(parentPath) {
		parentPath = filepath.Join(dir, parentPath)
	}
	parent, _, err := load(parentPath, visited)
	if err != nil {
		return Config{}, "", err
	}
	return Merge(parent, cfg), dir, nil
}

// Merge overlays child on parent: fields the child sets win, unset
// fields fall through to the parent.
func Merge(parent, child Config) Config {
	out := parent
	out.Extends = ""
	if child.Title != "" {
		out.Title = child.Title
	}
	if child.Module != "" {
		out.Module = child.Module
	}
	if child.Entry != "" {
		out.Entry = child.Entry
	}
	if len(child.Factories) > 0 {
		out.Factories = child.Factories
	}
	if len(child.Dirs) > 0 {
		out.Dirs = child.Dirs
	}
	if child.Output != "" {
		out.Output = child.Output
	}
	if len(child.BuildFlags) > 0 {
		out.BuildFlags = child.BuildFlags
	}
	if len(child.Env) > 0 {
		out.Env = child.Env
	}
	if child.Tests != nil {
		out.Tests = child.Tests
	}
	if child.Script != "" {
		out.Script = child.Script
	}
	if child.Highlight != "" {
		out.Highlight = child.Highlight
	}
	return out
}

// WithDefaults fills unset fields from Default.
func (c Config) WithDefaults() Config {
	return Merge(Default(), c)
}

// Validate checks the fields a run requires. It expects defaults to
// have been applied already.
func (c Config) Validate() error {
	if c.Entry == "" {
		return fmt.Errorf("config: entry package is required")
	}
	if len(c.Factories) == 0 {
		return fmt.Errorf("config: at least one factory name is required")
	}
	if len(c.Dirs) == 0 {
		return fmt.Errorf("config: at least one search dir is required")
	}
	switch c.Highlight {
	case HighlightHTML, HighlightPlain, HighlightOff:
	default:
		return fmt.Errorf("config: unknown highlight mode %q (want html, plain, or off)", c.Highlight)
	}
	return nil
}

// TestsEnabled reports whether _test.go files join the analysis.
func (c Config) TestsEnabled() bool {
	return c.Tests != nil && *c.Tests
}

// Discover walks from dir upward looking for DefaultFileName and
// returns the first hit, or "" when no config file exists up the tree.
func Discover(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: resolving %s: %w", dir, err)
	}
	for {
		candidate := filepath.Join(abs, DefaultFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("config: probing %s: %w", candidate, err)
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", nil
		}
		abs = parent
	}
}

// resolvePaths anchors the file-relative path fields to dir.
func (c *Config) resolvePaths(dir string) {
	c.Module = resolvePath(dir, c.Module)
	c.Output = resolvePath(dir, c.Output)
	if !strings.HasPrefix(c.Script, BuiltinScriptPrefix) {
		c.Script = resolvePath(dir, c.Script)
	}
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
