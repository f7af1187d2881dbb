package refdoc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jward/refdoc/internal/cache"
	"github.com/jward/refdoc/internal/config"
)

// CachePath returns the artifact cache location under the configured
// output directory.
func (e *Engine) CachePath() string {
	return CachePathFor(e.cfg)
}

// CachePathFor returns the artifact cache location for a config
// without constructing an Engine.
func CachePathFor(cfg config.Config) string {
	cfg = cfg.WithDefaults()
	return filepath.Join(cfg.Output, cacheDirName, cacheFileName)
}

// Query reads the artifact cache left behind by earlier runs. It never
// triggers analysis; a run must have written the cache first.
type Query struct {
	cache *cache.Cache
}

// Query opens the artifact cache for reading.
func (e *Engine) Query() (*Query, error) {
	return OpenQuery(e.cfg)
}

// OpenQuery opens the artifact cache for cfg's output directory.
func OpenQuery(cfg config.Config) (*Query, error) {
	path := CachePathFor(cfg)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("refdoc: no cache at %s (run generate first)", path)
	}
	c, err := cache.Open(path)
	if err != nil {
		return nil, fmt.Errorf("refdoc: open cache: %w", err)
	}
	return &Query{cache: c}, nil
}

// Close releases the cache connection.
func (q *Query) Close() error {
	return q.cache.Close()
}

// Artifacts lists cached artifacts ordered by id, optionally filtered
// to ids with the given prefix.
func (q *Query) Artifacts(prefix string) ([]*Artifact, error) {
	if prefix == "" {
		return q.cache.Artifacts()
	}
	return q.cache.ArtifactsByPrefix(prefix)
}

// Artifact returns the cached record for one id, or nil when absent.
func (q *Query) Artifact(id string) (*Artifact, error) {
	return q.cache.Artifact(id)
}

// Count returns the number of cached artifacts.
func (q *Query) Count() (int, error) {
	return q.cache.Count()
}

// Clear empties the cache; the next Write rewrites every page.
func (q *Query) Clear() error {
	return q.cache.Clear()
}
