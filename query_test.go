package refdoc

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/refdoc/internal/config"
)

// newTestQuery runs the basic sample module once and opens its cache.
func newTestQuery(t *testing.T) (*Query, *Engine) {
	t.Helper()
	e, err := New(basicConfig(t))
	require.NoError(t, err)
	_, _, err = e.Run(context.Background(), false)
	require.NoError(t, err)

	q, err := e.Query()
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q, e
}

func TestOpenQuery_NoCache(t *testing.T) {
	_, err := OpenQuery(config.Config{Output: filepath.Join(t.TempDir(), "empty")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cache at")
}

func TestQuery_ArtifactsOrderedByID(t *testing.T) {
	q, _ := newTestQuery(t)

	arts, err := q.Artifacts("")
	require.NoError(t, err)
	require.Len(t, arts, 3)
	assert.Equal(t, "core.level", arts[0].ID)
	assert.Equal(t, "core.settings", arts[1].ID)
	assert.Equal(t, "core.storage", arts[2].ID)
	for _, a := range arts {
		assert.NotEmpty(t, a.FileName)
		assert.NotEmpty(t, a.DocHash)
		assert.NotEmpty(t, a.OutputHash)
		assert.False(t, a.RenderedAt.IsZero())
	}
}

func TestQuery_ArtifactsPrefixFilter(t *testing.T) {
	q, _ := newTestQuery(t)

	arts, err := q.Artifacts("core.s")
	require.NoError(t, err)
	require.Len(t, arts, 2)
	assert.Equal(t, "core.settings", arts[0].ID)
	assert.Equal(t, "core.storage", arts[1].ID)

	arts, err = q.Artifacts("other.")
	require.NoError(t, err)
	assert.Empty(t, arts)
}

func TestQuery_Artifact(t *testing.T) {
	q, _ := newTestQuery(t)

	a, err := q.Artifact("core.storage")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "StorageAPI", a.Name)
	assert.Equal(t, "storageapi.md", a.FileName)

	a, err = q.Artifact("core.missing")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestQuery_ClearForcesRewrite(t *testing.T) {
	q, e := newTestQuery(t)

	n, err := q.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, q.Clear())
	n, err = q.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, q.Close())

	// With the cache gone, the next run rewrites everything.
	_, stats, err := e.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, WriteStats{Written: 3}, stats)
}

func TestCachePathFor(t *testing.T) {
	path := CachePathFor(config.Config{Output: filepath.Join("docs", "ref")})
	assert.Equal(t, filepath.Join("docs", "ref", ".refdoc", "cache.db"), path)
}
