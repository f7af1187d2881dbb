package main_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles the refdoc binary into t.TempDir() and returns
// its path.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "refdoc"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "refdoc")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot walks up from this test file's directory to go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "could not find project root")
		dir = parent
	}
}

// createFixture writes a minimal module with one factory package, one
// published handle, and a refdoc.yaml, and returns its root.
func createFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"go.mod": "module example.com/fixture\n\ngo 1.21\n",
		"refs/refs.go": `package refs

// Config carries the published identity of a handle.
type Config struct {
	ID string
}

// Ref is a typed handle to a published service.
type Ref[T any] struct {
	id string
}

// New publishes a handle for T under cfg's identity.
func New[T any](cfg Config) Ref[T] {
	return Ref[T]{id: cfg.ID}
}
`,
		"api/api.go": `package api

import "example.com/fixture/refs"

// Greeter greets.
type Greeter interface {
	// Greet returns a greeting for name.
	Greet(name string) string
}

// GreeterAPI is the published greeter handle.
var GreeterAPI = refs.New[Greeter](refs.Config{ID: "demo.greeter"})
`,
		"refdoc.yaml": `title: Fixture Reference
entry: ./refs
output: docs
highlight: plain
env:
  - GOWORK=off
  - GOFLAGS=-mod=mod
`,
	}
	for name, src := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return dir
}

func runBinary(t *testing.T, bin, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestGenerate_WritesPagesAndManifest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createFixture(t)

	out, err := runBinary(t, bin, fixture, "generate", fixture)
	require.NoError(t, err, "generate failed: %s", out)
	assert.Contains(t, out, "Documented 1 handle(s)")
	assert.Contains(t, out, "1 written, 0 skipped, 0 pruned")

	page, err := os.ReadFile(filepath.Join(fixture, "docs", "greeterapi.md"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "# GreeterAPI")
	assert.Contains(t, string(page), "Greet(name string) string")

	nav, err := os.ReadFile(filepath.Join(fixture, "docs", "nav.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(nav), "Fixture Reference")
	assert.Contains(t, string(nav), "demo.greeter: greeterapi.md")

	_, err = os.Stat(filepath.Join(fixture, "docs", ".refdoc", "cache.db"))
	require.NoError(t, err, "artifact cache should exist")
}

func TestGenerate_SecondRunSkips(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createFixture(t)

	out, err := runBinary(t, bin, fixture, "generate", fixture)
	require.NoError(t, err, "first generate failed: %s", out)

	out, err = runBinary(t, bin, fixture, "generate", fixture)
	require.NoError(t, err, "second generate failed: %s", out)
	assert.Contains(t, out, "0 written, 1 skipped, 0 pruned")

	// --force rewrites regardless.
	out, err = runBinary(t, bin, fixture, "generate", "--force", fixture)
	require.NoError(t, err, "forced generate failed: %s", out)
	assert.Contains(t, out, "1 written, 0 skipped, 0 pruned")
}

func TestList_JSONEnvelope(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createFixture(t)

	out, err := runBinary(t, bin, fixture, "list", "--members", fixture)
	require.NoError(t, err, "list failed: %s", out)

	var result struct {
		Command string `json:"command"`
		Results []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Shape       string `json:"shape"`
			MemberCount int    `json:"member_count"`
			Members     []struct {
				Name string `json:"name"`
				Kind string `json:"kind"`
			} `json:"members"`
		} `json:"results"`
		TotalCount *int `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "list", result.Command)
	require.NotNil(t, result.TotalCount)
	assert.Equal(t, 1, *result.TotalCount)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "demo.greeter", result.Results[0].ID)
	assert.Equal(t, "GreeterAPI", result.Results[0].Name)
	assert.Equal(t, "interface", result.Results[0].Shape)
	require.Len(t, result.Results[0].Members, 1)
	assert.Equal(t, "Greet", result.Results[0].Members[0].Name)
}

func TestCacheStatusAndClear(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createFixture(t)

	out, err := runBinary(t, bin, fixture, "generate", fixture)
	require.NoError(t, err, "generate failed: %s", out)

	out, err = runBinary(t, bin, fixture, "cache", "status", "--format", "text", fixture)
	require.NoError(t, err, "cache status failed: %s", out)
	assert.Contains(t, out, "demo.greeter")
	assert.Contains(t, out, "greeterapi.md")

	out, err = runBinary(t, bin, fixture, "cache", "clear", fixture)
	require.NoError(t, err, "cache clear failed: %s", out)
	assert.Contains(t, out, "Cleared 1 cached artifact(s)")

	out, err = runBinary(t, bin, fixture, "generate", fixture)
	require.NoError(t, err, "post-clear generate failed: %s", out)
	assert.Contains(t, out, "1 written, 0 skipped, 0 pruned")
}

func TestGenerate_MissingDirectory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)

	out, err := runBinary(t, bin, t.TempDir(), "generate", "/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, out, "directory not found")
}

func TestInvalidFormatFlag(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)

	out, err := runBinary(t, bin, t.TempDir(), "list", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, out, `invalid format "yaml"`)
}
